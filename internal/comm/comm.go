package comm

import (
	"encoding/json"
	"time"

	"github.com/scratchpos/lottery-services/internal/packsvc/reconcile"
)

// Subjects for the lane gateway <-> pack service bridge.
const (
	SubjectLane = "lane.service" // lane gateway publishes scan traffic here
	SubjectPack = "pack.service" // pack service publishes results here
)

// WSMessage is the envelope relayed between the lane terminals and the
// pack service. SocketId identifies the originating lane connection so
// responses find their way back.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "scan-key", "scan-submit"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// ScanKey is one keystroke from a lane input field, timestamped by the
// terminal in milliseconds.
type ScanKey struct {
	Field string `json:"field"` // logical input field, e.g. "dayclose-barcode"
	Char  string `json:"char"`
	TsMs  int64  `json:"ts_ms"`
}

// ScanPaste reports a paste into a lane input field.
type ScanPaste struct {
	Field string `json:"field"`
	Text  string `json:"text"`
	TsMs  int64  `json:"ts_ms"`
}

// ScanSubmit finishes one lane input: the detector session resolves and
// the accepted barcode feeds reconciliation.
type ScanSubmit struct {
	Field       string `json:"field"`
	StoreID     int64  `json:"store_id"`
	ActualCount *int   `json:"actual_count,omitempty"`
}

// ScanReject tells the lane to clear the offending field and let the
// operator rescan.
type ScanReject struct {
	Field          string `json:"field"`
	Cause          string `json:"cause"`
	Classification string `json:"classification"`
}

// ScanResultData carries the reconciliation outcome back to the lane for
// display.
type ScanResultData struct {
	Field  string           `json:"field"`
	Result reconcile.Result `json:"result"`
}

// LaneHeartbeat lets the pack service expire dead lane sessions.
type LaneHeartbeat struct {
	SocketId  string    `json:"socketid"`
	Timestamp time.Time `json:"timestamp"`
}

// LaneClosed signals the lane connection went away; detector sessions
// for it are discarded.
type LaneClosed struct {
	SocketId string `json:"socketid"`
}
