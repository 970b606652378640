package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// Event kinds.
const (
	KindProgressSync = "progress_sync"
	KindQuizSubmit   = "quiz_submit"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	Kind  string    // exact kind ("" = any)
	From  time.Time // timestamp >= From
	To    time.Time // timestamp <= To
}

// SyncEventData captures one remote progress write.
type SyncEventData struct {
	LessonID  int    `json:"lesson_id"`
	Revision  int64  `json:"revision"`
	Percent   int    `json:"percent"`
	LatencyMs int64  `json:"latency_ms"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// AttemptEventData captures one quiz submission.
type AttemptEventData struct {
	QuizID    int     `json:"quiz_id"`
	AttemptID string  `json:"attempt_id"`
	Score     float64 `json:"score"`
	Passed    bool    `json:"passed"`
	TimeSpent int     `json:"time_spent"`
	LatencyMs int64   `json:"latency_ms"`
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
}

// Event is one row of the event log. Data is the kind-specific payload.
type Event struct {
	ID        int
	Kind      string
	Subject   string
	Success   bool
	Timestamp time.Time
	Data      json.RawMessage
}

// Stats summarizes the event log.
type Stats struct {
	SyncOK        int
	SyncFailed    int
	SubmitOK      int
	SubmitFailed  int
	LastSyncError *Event
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendSyncEvent records a remote progress write for the lesson slug.
	AppendSyncEvent(ctx context.Context, slug string, data SyncEventData) error

	// AppendAttemptEvent records a quiz submission.
	AppendAttemptEvent(ctx context.Context, subject string, data AttemptEventData) error

	// Recent returns events newest first.
	Recent(ctx context.Context, opts QueryOpts) ([]Event, error)

	// SyncStats counts outcomes per kind.
	SyncStats(ctx context.Context) (Stats, error)
}

type eventRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *eventRepo) timestamp() int64 {
	if r.now != nil {
		return r.now().UnixMilli()
	}
	return time.Now().UnixMilli()
}

func (r *eventRepo) append(ctx context.Context, kind, subject string, success bool, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}

	query, args := builder().
		Insert(eventsTable).
		Columns("kind", "subject", "success", "timestamp", "data").
		Values(kind, subject, success, r.timestamp(), string(raw)).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append %s event: %w", kind, err)
	}
	return nil
}

func (r *eventRepo) AppendSyncEvent(ctx context.Context, slug string, data SyncEventData) error {
	return r.append(ctx, KindProgressSync, slug, data.Success, data)
}

func (r *eventRepo) AppendAttemptEvent(ctx context.Context, subject string, data AttemptEventData) error {
	return r.append(ctx, KindQuizSubmit, subject, data.Success, data)
}

func (r *eventRepo) Recent(ctx context.Context, opts QueryOpts) ([]Event, error) {
	sel := builder().
		Select("id", "kind", "subject", "success", "timestamp", "data").
		From(entsql.Table(eventsTable))

	var preds []*entsql.Predicate
	if opts.Kind != "" {
		preds = append(preds, entsql.EQ("kind", opts.Kind))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("timestamp"), entsql.Desc("id"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e    Event
			ms   int64
			data string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Subject, &e.Success, &ms, &data); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ms)
		e.Data = json.RawMessage(data)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) SyncStats(ctx context.Context) (Stats, error) {
	query, args := builder().
		Select("kind", "success", entsql.Count("*")).
		From(entsql.Table(eventsTable)).
		GroupBy("kind", "success").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("query event stats: %w", err)
	}
	defer rows.Close()

	var st Stats
	for rows.Next() {
		var (
			kind    string
			success bool
			n       int
		)
		if err := rows.Scan(&kind, &success, &n); err != nil {
			return Stats{}, fmt.Errorf("scan event stats: %w", err)
		}
		switch {
		case kind == KindProgressSync && success:
			st.SyncOK = n
		case kind == KindProgressSync:
			st.SyncFailed = n
		case kind == KindQuizSubmit && success:
			st.SubmitOK = n
		case kind == KindQuizSubmit:
			st.SubmitFailed = n
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if st.SyncFailed > 0 {
		failed, err := r.Recent(ctx, QueryOpts{Kind: KindProgressSync, Limit: 50})
		if err != nil {
			return Stats{}, err
		}
		for i := range failed {
			if !failed[i].Success {
				st.LastSyncError = &failed[i]
				break
			}
		}
	}
	return st, nil
}
