package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/scratchpos/lottery-services/internal/comm"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/scanguard"
	"github.com/scratchpos/lottery-services/internal/packsvc/service"
)

// Broker bridges the lane gateway to the scan detector and the day-close
// services. One detector session lives per (socket, field) pair and is
// discarded as soon as the field resolves, so timing never bleeds across
// sessions.
type Broker struct {
	Conn            *nats.Conn
	DayCloseService *service.DayCloseService
	AuditService    *service.AuditService
	Policy          scanguard.Policy

	mu       sync.Mutex
	sessions map[sessionKey]*scanguard.Detector
	lastSeen map[string]time.Time
}

type sessionKey struct {
	socketId string
	field    string
}

func NewBroker(nc *nats.Conn, dayCloseService *service.DayCloseService,
	auditService *service.AuditService, policy scanguard.Policy) *Broker {
	return &Broker{
		Conn:            nc,
		DayCloseService: dayCloseService,
		AuditService:    auditService,
		Policy:          policy,
		sessions:        make(map[sessionKey]*scanguard.Detector),
		lastSeen:        make(map[string]time.Time),
	}
}

// SubscribeLaneService attaches the broker to scan traffic from the lane
// gateway.
func (b *Broker) SubscribeLaneService(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleMessage)
}

func (b *Broker) detector(key sessionKey) *scanguard.Detector {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen[key.socketId] = time.Now()
	d, ok := b.sessions[key]
	if !ok {
		d = scanguard.NewDetector(b.Policy)
		b.sessions[key] = d
	}
	return d
}

func (b *Broker) dropSession(key sessionKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, key)
}

func (b *Broker) dropSocketSessions(socketId string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lastSeen, socketId)
	for key := range b.sessions {
		if key.socketId == socketId {
			delete(b.sessions, key)
		}
	}
}

func (b *Broker) noteHeartbeat(socketId string, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen[socketId] = ts
}

// ExpireIdleSessions drops detector state for lanes that stopped
// heartbeating. A crashed terminal never sends lane-closed, so stale
// sessions would otherwise sit in memory forever. Returns the number of
// sessions dropped.
func (b *Broker) ExpireIdleSessions(maxIdle time.Duration, now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for socketId, seen := range b.lastSeen {
		if now.Sub(seen) <= maxIdle {
			continue
		}
		delete(b.lastSeen, socketId)
		for key := range b.sessions {
			if key.socketId == socketId {
				delete(b.sessions, key)
				dropped++
			}
		}
	}
	return dropped
}

// handles messages coming from the lane gateway
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "scan-key":
		b.handleScanKey(msg)
	case "scan-paste":
		b.handleScanPaste(msg)
	case "scan-submit":
		b.handleScanSubmit(msg)
	case "lane-closed":
		b.dropSocketSessions(msg.SocketId)
	case "lane-heartbeat":
		b.handleHeartbeat(msg)
	default:
		log.Warnf("unknown lane message type: %s", msg.Type)
	}
}

func (b *Broker) handleHeartbeat(msg *comm.WSMessage) {
	var hb comm.LaneHeartbeat
	if err := json.Unmarshal(msg.Data, &hb); err != nil {
		log.Errorf("Error %s", err)
		return
	}
	ts := hb.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	b.noteHeartbeat(msg.SocketId, ts)
}

func (b *Broker) handleScanKey(msg *comm.WSMessage) {
	var key comm.ScanKey
	if err := json.Unmarshal(msg.Data, &key); err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if key.Char == "" {
		return
	}

	sk := sessionKey{socketId: msg.SocketId, field: key.Field}
	d := b.detector(sk)
	if err := d.Keystroke([]rune(key.Char)[0], key.TsMs); err != nil {
		b.rejectScan(msg.SocketId, key.Field, d, err)
	}
}

func (b *Broker) handleScanPaste(msg *comm.WSMessage) {
	var paste comm.ScanPaste
	if err := json.Unmarshal(msg.Data, &paste); err != nil {
		log.Errorf("Error %s", err)
		return
	}

	sk := sessionKey{socketId: msg.SocketId, field: paste.Field}
	d := b.detector(sk)
	if err := d.PasteEvent(paste.Text); err != nil {
		b.rejectScan(msg.SocketId, paste.Field, d, err)
	}
}

func (b *Broker) handleScanSubmit(msg *comm.WSMessage) {
	var submit comm.ScanSubmit
	if err := json.Unmarshal(msg.Data, &submit); err != nil {
		log.Errorf("Error %s", err)
		return
	}

	sk := sessionKey{socketId: msg.SocketId, field: submit.Field}
	d := b.detector(sk)

	value, classification, err := d.Complete()
	if err != nil {
		b.rejectScan(msg.SocketId, submit.Field, d, err)
		return
	}

	b.audit(msg.SocketId, submit.Field, value, string(classification), false, "")
	b.dropSession(sk)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := b.DayCloseService.ResolveScan(ctx, submit.StoreID, value, submit.ActualCount)
	if err != nil {
		log.Errorf("Error [DayCloseService.ResolveScan] %s", err)
		b.publish("scan-error", msg.SocketId, comm.ScanReject{
			Field: submit.Field,
			Cause: err.Error(),
		})
		return
	}

	b.publish("scan-result", msg.SocketId, comm.ScanResultData{
		Field:  submit.Field,
		Result: result,
	})
}

// rejectScan audits the refused attempt, resets the session so a fresh
// scan can start, and tells the lane to clear the field.
func (b *Broker) rejectScan(socketId, field string, d *scanguard.Detector, cause error) {
	classification := string(d.Classify())
	b.audit(socketId, field, d.Value(), classification, true, cause.Error())
	d.Reset()

	b.publish("scan-reject", socketId, comm.ScanReject{
		Field:          field,
		Cause:          cause.Error(),
		Classification: classification,
	})
}

func (b *Broker) audit(socketId, field, raw, classification string, rejected bool, cause string) {
	if b.AuditService == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.AuditService.RecordScanAttempt(ctx, models.ScanAuditEntry{
		LaneID:         socketId,
		Field:          field,
		RawInput:       raw,
		Classification: classification,
		Rejected:       rejected,
		RejectCause:    cause,
	})
	if err != nil {
		log.Errorf("Error [AuditService.RecordScanAttempt] %s", err)
	}
}

func (b *Broker) publish(msgType, socketId string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	out, err := json.Marshal(comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	})
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if err := b.Conn.Publish(comm.SubjectPack, out); err != nil {
		log.Errorf("Error publishing to %s: %s", comm.SubjectPack, err)
	}
}
