package query

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/repository"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	// One physical query is issued per calendar day on the day-partitioned
	// projections, so the range is capped to keep reads bounded.
	maxRangeDays = 92
)

// Filter describes one read. Selection priority: session, then visitor,
// then event type, then the global day feed. The visitor and session
// projections are not day-partitioned and ignore the date range.
type Filter struct {
	WebsiteID string
	VisitorID string
	SessionID string
	EventType string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	PageToken string
}

// Page is a time-ordered page of events.
type Page struct {
	Events        []*domain.Event
	HasMore       bool
	NextPageToken string
}

// Router selects the physical projection matching a filter and merges
// multi-partition results into a single time-ordered page.
type Router struct {
	repo repository.EventRepository
	log  *zap.Logger
}

// NewRouter creates a new query router
func NewRouter(repo repository.EventRepository, log *zap.Logger) *Router {
	return &Router{
		repo: repo,
		log:  log,
	}
}

// Query serves a filter from whichever projection matches it. A filter that
// matches nothing yields an empty page, not an error.
func (r *Router) Query(ctx context.Context, f Filter) (*Page, error) {
	if f.WebsiteID == "" {
		return nil, domain.NewMissingField("website_id")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset, err := decodePageToken(f.PageToken)
	if err != nil {
		return nil, &domain.ValidationError{Field: "page_token", Reason: "malformed page token"}
	}

	// Fetch enough rows to cover the offset, the page, and a one-row
	// lookahead for has_more.
	fetch := offset + limit + 1

	var events []*domain.Event
	ascending := false

	switch {
	case f.SessionID != "":
		ascending = true
		events, err = r.repo.EventsBySession(ctx, f.WebsiteID, f.SessionID, fetch)

	case f.VisitorID != "":
		events, err = r.repo.EventsByVisitor(ctx, f.WebsiteID, f.VisitorID, fetch)

	case f.EventType != "":
		events, err = r.queryDays(ctx, f, fetch, func(ctx context.Context, day time.Time) ([]*domain.Event, error) {
			return r.repo.EventsByTypeDay(ctx, f.WebsiteID, f.EventType, day, fetch)
		})

	default:
		events, err = r.queryDays(ctx, f, fetch, func(ctx context.Context, day time.Time) ([]*domain.Event, error) {
			return r.repo.EventsByDay(ctx, f.WebsiteID, day, fetch)
		})
	}

	if err != nil {
		return nil, err
	}

	sortEvents(events, ascending)

	return paginate(events, offset, limit), nil
}

// queryDays issues one read per calendar day in the filter's range and
// concatenates the results. This is O(days x page) by design: the cost of
// partition-friendly writes is paid on the read side.
func (r *Router) queryDays(ctx context.Context, f Filter, fetch int, read func(context.Context, time.Time) ([]*domain.Event, error)) ([]*domain.Event, error) {
	start, end, err := dayRange(f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}

	var merged []*domain.Event
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		events, err := read(ctx, day)
		if err != nil {
			return nil, err
		}
		merged = append(merged, events...)
	}

	if days := int(end.Sub(start).Hours()/24) + 1; days > 1 {
		r.log.Debug("Merged multi-day query",
			zap.String("website_id", f.WebsiteID),
			zap.Int("days", days),
			zap.Int("merged_events", len(merged)),
			zap.Int("fetch", fetch))
	}

	return merged, nil
}

// dayRange normalizes a date range to whole UTC days, defaulting to today.
func dayRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() && end.IsZero() {
		today := domain.Day(time.Now())
		return today, today, nil
	}
	if start.IsZero() {
		start = end
	}
	if end.IsZero() {
		end = start
	}

	start = domain.Day(start)
	end = domain.Day(end)

	if end.Before(start) {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "date_range", Reason: "end date precedes start date"}
	}
	if int(end.Sub(start).Hours()/24)+1 > maxRangeDays {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "date_range", Reason: fmt.Sprintf("range exceeds %d days", maxRangeDays)}
	}

	return start, end, nil
}

// sortEvents globally re-sorts merged results by event time with the event
// id as tiebreak.
func sortEvents(events []*domain.Event, ascending bool) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].EventTime.Equal(events[j].EventTime) {
			if ascending {
				return events[i].EventTime.Before(events[j].EventTime)
			}
			return events[i].EventTime.After(events[j].EventTime)
		}
		if ascending {
			return events[i].EventID < events[j].EventID
		}
		return events[i].EventID > events[j].EventID
	})
}

func paginate(events []*domain.Event, offset, limit int) *Page {
	if offset >= len(events) {
		return &Page{Events: []*domain.Event{}}
	}

	end := offset + limit
	hasMore := len(events) > end
	if end > len(events) {
		end = len(events)
	}

	page := &Page{
		Events:  events[offset:end],
		HasMore: hasMore,
	}
	if hasMore {
		page.NextPageToken = encodePageToken(end)
	}

	return page
}

func encodePageToken(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

func decodePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, err
	}

	raw, ok := strings.CutPrefix(string(decoded), "o:")
	if !ok {
		return 0, fmt.Errorf("unexpected token payload")
	}

	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("unexpected token offset")
	}

	return offset, nil
}
