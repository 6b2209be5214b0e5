package auth

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuditLog is a persisted activity event. Rows are append-only, cleanup is
// external tooling's problem.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:adt"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        string            `bun:"user_id" json:"user_id,omitempty"`
	Email         string            `bun:"email" json:"email,omitempty"`
	EventType     ActivityEventType `bun:"event_type,notnull" json:"event_type,omitempty"`
	IP            string            `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string            `bun:"user_agent" json:"user_agent,omitempty"`
	Metadata      map[string]any    `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// NewAuditLogsRepository builds the append-only audit trail repository.
func NewAuditLogsRepository(db *bun.DB) repository.Repository[*AuditLog] {
	handlers := repository.ModelHandlers[*AuditLog]{
		NewRecord: func() *AuditLog { return &AuditLog{} },
		GetID: func(record *AuditLog) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *AuditLog, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	}
	return repository.NewRepository(db, handlers)
}

// AuditTrailSink is an ActivitySink that persists events as audit rows.
type AuditTrailSink struct {
	repo repository.Repository[*AuditLog]
}

// NewAuditTrailSink wires the sink to an audit repository.
func NewAuditTrailSink(repo repository.Repository[*AuditLog]) *AuditTrailSink {
	return &AuditTrailSink{repo: repo}
}

// Record implements ActivitySink.
func (s *AuditTrailSink) Record(ctx context.Context, event ActivityEvent) error {
	if s == nil || s.repo == nil {
		return nil
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	_, err := s.repo.Create(ctx, &AuditLog{
		ID:        uuid.New(),
		UserID:    event.UserID,
		Email:     event.Email,
		EventType: event.EventType,
		IP:        event.IP,
		UserAgent: event.UserAgent,
		Metadata:  event.Metadata,
		CreatedAt: &occurredAt,
	})

	return err
}

var _ ActivitySink = (*AuditTrailSink)(nil)
