package models

import "time"

// ScanAuditEntry is the mongo document written for every resolved scan
// attempt, accepted or rejected. The collection carries a TTL index on
// expires_at so the trail prunes itself.
type ScanAuditEntry struct {
	LaneID         string    `bson:"lane_id" json:"lane_id"`
	Field          string    `bson:"field" json:"field"`
	RawInput       string    `bson:"raw_input" json:"raw_input"`
	Classification string    `bson:"classification" json:"classification"`
	Rejected       bool      `bson:"rejected" json:"rejected"`
	RejectCause    string    `bson:"reject_cause,omitempty" json:"reject_cause,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
}
