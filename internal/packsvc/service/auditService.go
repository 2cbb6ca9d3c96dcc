package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

// ScanAuditCollection is the mongo collection holding the scan attempt
// trail. It carries a TTL index on expires_at.
const ScanAuditCollection = "scan_audit"

// AuditService records every scan attempt, accepted or rejected, into a
// self-pruning mongo collection. Auditing is advisory: failures are
// reported but must not block the scan path.
type AuditService struct {
	coll      *mongo.Collection
	retention time.Duration
	clock     clock.Clock
}

func NewAuditService(db *mongo.Database, retention time.Duration, clk clock.Clock) *AuditService {
	return &AuditService{
		coll:      db.Collection(ScanAuditCollection),
		retention: retention,
		clock:     clk,
	}
}

// RecordScanAttempt stamps and inserts one audit entry.
func (s *AuditService) RecordScanAttempt(ctx context.Context, entry models.ScanAuditEntry) error {
	now := s.clock.Now()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(s.retention)

	_, err := s.coll.InsertOne(ctx, entry)
	return err
}
