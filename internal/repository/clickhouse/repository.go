package clickhouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/repository"
)

const eventColumns = `event_id, website_id, visitor_id, session_id, user_id,
	event_date, event_time, event_type, event_name,
	page_url, page_path, page_title, referrer,
	browser, os, device, screen, language, country, city,
	utm_source, utm_medium, utm_campaign, utm_content, utm_term, properties`

// Repository implements repository.EventRepository over the four ClickHouse
// projections.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

func appendEvent(batch driver.Batch, e *domain.Event) error {
	props := e.Properties
	if props == nil {
		props = map[string]string{}
	}

	return batch.Append(
		e.EventID,
		e.WebsiteID,
		e.VisitorID,
		e.SessionID,
		e.UserID,
		e.EventDate,
		e.EventTime,
		e.EventType,
		e.EventName,
		e.PageURL,
		e.PagePath,
		e.PageTitle,
		e.Referrer,
		e.Browser,
		e.OS,
		e.Device,
		e.Screen,
		e.Language,
		e.Country,
		e.City,
		e.UTMSource,
		e.UTMMedium,
		e.UTMCampaign,
		e.UTMContent,
		e.UTMTerm,
		props,
	)
}

// insertInto writes events into one projection table.
func (r *Repository) insertInto(ctx context.Context, projection repository.Projection, events []*domain.Event) error {
	batch, err := r.client.Conn().PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", projection))
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", projection, err)
	}

	for _, e := range events {
		if err := appendEvent(batch, e); err != nil {
			return fmt.Errorf("failed to append event to %s batch: %w", projection, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send %s batch: %w", projection, err)
	}

	return nil
}

// fanout issues one write per projection concurrently and collects the
// per-projection outcomes. There is no transaction across projections and
// no rollback: a projection written before a sibling failed keeps its rows.
func (r *Repository) fanout(ctx context.Context, events []*domain.Event) repository.WriteReport {
	report := repository.WriteReport{Outcomes: make(map[repository.Projection]error, len(repository.Projections))}

	var mu sync.Mutex
	var g errgroup.Group

	for _, projection := range repository.Projections {
		projection := projection
		g.Go(func() error {
			err := r.insertInto(ctx, projection, events)
			mu.Lock()
			report.Outcomes[projection] = err
			mu.Unlock()
			return err
		})
	}

	// Errors are surfaced through the report; the group is only a join point.
	_ = g.Wait()

	return report
}

// WriteFanout writes one event to all four projections concurrently.
func (r *Repository) WriteFanout(ctx context.Context, event *domain.Event) (repository.WriteReport, error) {
	report := r.fanout(ctx, []*domain.Event{event})

	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, p := range failed {
			names[i] = string(p)
		}
		r.log.Error("Partial projection fan-out failure",
			zap.String("event_id", event.EventID),
			zap.Strings("failed_projections", names),
			zap.Int("succeeded_projections", len(repository.Projections)-len(failed)),
			zap.Error(report.FirstError()))
		return report, &domain.WriteError{Failed: names, Err: report.FirstError()}
	}

	return report, nil
}

// WriteFanoutBatch writes a batch of events to all four projections.
func (r *Repository) WriteFanoutBatch(ctx context.Context, events []*domain.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	report := r.fanout(ctx, events)

	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, p := range failed {
			names[i] = string(p)
		}
		r.log.Error("Partial projection fan-out failure for batch",
			zap.Int("event_count", len(events)),
			zap.Strings("failed_projections", names),
			zap.Error(report.FirstError()))
		return 0, &domain.WriteError{Failed: names, Err: report.FirstError()}
	}

	return len(events), nil
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*domain.Event, error) {
	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close event rows", zap.Error(err))
		}
	}(rows)

	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.ScanStruct(&e); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

// EventsByDay reads the global feed for one website and calendar day,
// newest first.
func (r *Repository) EventsByDay(ctx context.Context, websiteID string, day time.Time, limit int) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events_by_day
		WHERE website_id = ? AND event_date = ?
		ORDER BY event_time DESC, event_id DESC
		LIMIT ?
	`, eventColumns)

	return r.queryEvents(ctx, query, websiteID, domain.Day(day), limit)
}

// EventsByVisitor reads one visitor's journey, newest first.
func (r *Repository) EventsByVisitor(ctx context.Context, websiteID, visitorID string, limit int) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events_by_visitor
		WHERE website_id = ? AND visitor_id = ?
		ORDER BY event_time DESC, event_id DESC
		LIMIT ?
	`, eventColumns)

	return r.queryEvents(ctx, query, websiteID, visitorID, limit)
}

// EventsBySession reads one session's timeline from its start, oldest
// first.
func (r *Repository) EventsBySession(ctx context.Context, websiteID, sessionID string, limit int) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events_by_session
		WHERE website_id = ? AND session_id = ?
		ORDER BY event_time ASC, event_id ASC
		LIMIT ?
	`, eventColumns)

	return r.queryEvents(ctx, query, websiteID, sessionID, limit)
}

// EventsByTypeDay reads type-scoped events for one website and calendar
// day, newest first.
func (r *Repository) EventsByTypeDay(ctx context.Context, websiteID, eventType string, day time.Time, limit int) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events_by_type_day
		WHERE website_id = ? AND event_type = ? AND event_date = ?
		ORDER BY event_time DESC, event_id DESC
		LIMIT ?
	`, eventColumns)

	return r.queryEvents(ctx, query, websiteID, eventType, domain.Day(day), limit)
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
