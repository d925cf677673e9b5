// Package audit persists a best-effort trail of auth events. Recording never
// fails the calling flow; a store failure is logged and swallowed.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded event. Actor is a user id and may be empty when the
// event is not attributable (an anonymous logout, for example).
type Entry struct {
	ID        string
	Actor     string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// Store persists audit entries.
type Store interface {
	Insert(ctx context.Context, e *Entry) error
}

// Logger records audit entries through a Store.
type Logger struct {
	store Store
}

func NewLogger(store Store) *Logger {
	return &Logger{store: store}
}

// Record writes one entry. Errors are logged, never returned.
func (l *Logger) Record(ctx context.Context, actor, action, detail string) {
	e := &Entry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.Insert(ctx, e); err != nil {
		log.Printf("audit: record %s: %v", action, err)
	}
}
