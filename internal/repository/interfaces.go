package repository

import (
	"context"
	"time"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// Projection identifies one physical arrangement of the logical event
// stream, keyed for a single access pattern.
type Projection string

const (
	// ProjectionDay is keyed by website and calendar day (global feed).
	ProjectionDay Projection = "events_by_day"
	// ProjectionVisitor is keyed by website and visitor (visitor journey).
	ProjectionVisitor Projection = "events_by_visitor"
	// ProjectionSession is keyed by website and session (session timeline).
	ProjectionSession Projection = "events_by_session"
	// ProjectionTypeDay is keyed by website, event type and calendar day.
	ProjectionTypeDay Projection = "events_by_type_day"
)

// Projections lists every projection a successful write must reach.
var Projections = []Projection{ProjectionDay, ProjectionVisitor, ProjectionSession, ProjectionTypeDay}

// WriteReport records the per-projection outcome of one fan-out. The public
// contract collapses to success or failure, but partial outcomes are kept
// for logs and future reconciliation tooling: failed projections are not
// rolled back.
type WriteReport struct {
	Outcomes map[Projection]error
}

// Failed returns the projections whose writes did not succeed.
func (r WriteReport) Failed() []Projection {
	var failed []Projection
	for _, p := range Projections {
		if err, ok := r.Outcomes[p]; ok && err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

// FirstError returns the first failure in projection order, or nil.
func (r WriteReport) FirstError() error {
	for _, p := range Projections {
		if err, ok := r.Outcomes[p]; ok && err != nil {
			return err
		}
	}
	return nil
}

// EventRepository defines the storage operations over the four event
// projections. Readers return events for exactly one projection; ordering
// is ascending by event time for the session timeline and descending
// everywhere else.
type EventRepository interface {
	// WriteFanout writes one event to all four projections concurrently.
	// The returned report carries per-projection outcomes even when the
	// error is non-nil.
	WriteFanout(ctx context.Context, event *domain.Event) (WriteReport, error)

	// WriteFanoutBatch writes a batch of events to all four projections.
	// Returns the number of events written when every projection
	// succeeded.
	WriteFanoutBatch(ctx context.Context, events []*domain.Event) (int, error)

	// EventsByDay reads the global feed for one website and calendar day,
	// newest first.
	EventsByDay(ctx context.Context, websiteID string, day time.Time, limit int) ([]*domain.Event, error)

	// EventsByVisitor reads one visitor's journey, newest first.
	EventsByVisitor(ctx context.Context, websiteID, visitorID string, limit int) ([]*domain.Event, error)

	// EventsBySession reads one session's timeline from its start, oldest
	// first.
	EventsBySession(ctx context.Context, websiteID, sessionID string, limit int) ([]*domain.Event, error)

	// EventsByTypeDay reads type-scoped events for one website and
	// calendar day, newest first.
	EventsByTypeDay(ctx context.Context, websiteID, eventType string, day time.Time, limit int) ([]*domain.Event, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error
}
