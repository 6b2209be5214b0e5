package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserRegistered ActivityEventType = "auth.user.registered"
	ActivityEventLoginSuccess   ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure   ActivityEventType = "auth.login.failure"
	ActivityEventAccountLocked  ActivityEventType = "auth.account.locked"
	ActivityEventLogout         ActivityEventType = "auth.logout"
)

// ActivityEvent is the payload handed to the event notifier on auth
// activity. It carries the identity summary external consumers care about.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	FirstName  string
	LastName   string
	IP         string
	UserAgent  string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for notification and auditing.
// Sinks are best-effort collaborators: the engine logs and swallows their
// failures, a broken sink must never fail a login.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// MultiActivitySink fans events out to several sinks, collecting nothing:
// each sink failure is independent and reported to the caller only as the
// first error encountered.
type MultiActivitySink []ActivitySink

// Record implements ActivitySink.
func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
