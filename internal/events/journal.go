package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Event is a versioned domain event that can be journaled.
type Event interface {
	EventType() string
}

// Envelope is the journal row for one event.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	Aggregate  string          `json:"aggregate"`
	RecordedAt time.Time       `json:"recorded_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Option customizes a sealed envelope.
type Option func(*Envelope)

// WithEventID pins the envelope id, usually to the event's own id.
func WithEventID(id uuid.UUID) Option {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithRecordedAt pins the journal timestamp.
func WithRecordedAt(ts time.Time) Option {
	return func(e *Envelope) {
		if !ts.IsZero() {
			e.RecordedAt = ts.UTC()
		}
	}
}

var (
	errMissingAggregate = errors.New("events: aggregate is required")
	errNilEvent         = errors.New("events: event required")
	nowFunc             = time.Now
)

// Seal wraps evt in an envelope keyed by aggregate, e.g. "booking:<id>".
func Seal(aggregate string, evt Event, opts ...Option) (Envelope, error) {
	aggregate = strings.TrimSpace(aggregate)
	if aggregate == "" {
		return Envelope{}, errMissingAggregate
	}
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	env := Envelope{
		EventID:    uuid.New(),
		EventType:  evt.EventType(),
		Aggregate:  aggregate,
		RecordedAt: nowFunc().UTC(),
		Payload:    payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}

// Execer is satisfied by pgx pools, connections and transactions.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Append seals evt and writes it to the event journal through exec. Pass a
// transaction to make the journal entry atomic with the state change.
func Append(ctx context.Context, exec Execer, aggregate string, evt Event, opts ...Option) (Envelope, error) {
	if exec == nil {
		return Envelope{}, fmt.Errorf("events: exec required")
	}
	env, err := Seal(aggregate, evt, opts...)
	if err != nil {
		return Envelope{}, err
	}
	query := `
		INSERT INTO event_journal (id, aggregate, event_type, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := exec.Exec(ctx, query, env.EventID, env.Aggregate, env.EventType, []byte(env.Payload), env.RecordedAt); err != nil {
		return Envelope{}, fmt.Errorf("events: append %s: %w", env.EventType, err)
	}
	return env, nil
}
