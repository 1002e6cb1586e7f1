package firestore

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
)

const auditLogsCollection = "auditLogs"

// AuditLogger appends admin actions to the audit trail. Writes are
// best-effort: a failed append is logged and never fails the action itself.
type AuditLogger struct {
	client *firestore.Client
	logger *slog.Logger
}

func NewAuditLogger(client *firestore.Client, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		client: client,
		logger: logger.With("component", "audit_logger"),
	}
}

type auditRecord struct {
	Action     string            `firestore:"action"`
	ActorID    string            `firestore:"actorId"`
	TargetID   string            `firestore:"targetId,omitempty"`
	TargetKind string            `firestore:"targetKind,omitempty"`
	Details    map[string]string `firestore:"details,omitempty"`
	Timestamp  time.Time         `firestore:"timestamp"`
}

// Record appends one entry to the audit trail.
func (a *AuditLogger) Record(ctx context.Context, action, actorID, targetKind, targetID string, details map[string]string) {
	record := auditRecord{
		Action:     action,
		ActorID:    actorID,
		TargetID:   targetID,
		TargetKind: targetKind,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
	if _, _, err := a.client.Collection(auditLogsCollection).Add(ctx, record); err != nil {
		a.logger.Warn("Failed to write audit log entry",
			"action", action,
			"actor_id", actorID,
			"error", err,
		)
	}
}
