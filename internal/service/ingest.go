package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/dto"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/idempotency"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/query"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/repository"
)

// Notifier receives every durably stored event for realtime fan-out.
// Delivery is best-effort and must never fail the underlying write.
type Notifier interface {
	Notify(ctx context.Context, websiteID string, event *domain.Event)
}

// EventService orchestrates ingestion: validate, dedup, fan out to the
// projections, then hand the event to the realtime broker.
type EventService struct {
	repo     repository.EventRepository
	router   *query.Router
	idem     idempotency.Checker
	notifier Notifier
	log      *zap.Logger
}

// NewEventService creates a new event service. idem and notifier may be
// nil: the consumer binary runs without a broker, and dedup is optional.
func NewEventService(repo repository.EventRepository, router *query.Router, idem idempotency.Checker, notifier Notifier, log *zap.Logger) *EventService {
	return &EventService{
		repo:     repo,
		router:   router,
		idem:     idem,
		notifier: notifier,
		log:      log,
	}
}

// dedupKey derives a retry identity for client-stamped events from the
// fields a tracker resends unchanged. Two genuinely distinct events that
// share every keyed field, including the millisecond timestamp, collapse
// into one within the dedup TTL. Trackers that can emit such same-instant
// bursts must vary a keyed field, or omit the timestamp and let the server
// stamp each event.
func dedupKey(in *domain.EventInput) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		in.WebsiteID,
		in.VisitorID,
		in.SessionID,
		in.EventType,
		in.EventName,
		in.Timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// IngestEvent validates and stores a single event across all four
// projections, then notifies realtime subscribers.
func (s *EventService) IngestEvent(ctx context.Context, in *domain.EventInput) (*dto.IngestEventResponse, error) {
	event, warnings, err := domain.NewEvent(in, time.Now())
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		s.log.Warn("Coerced non-canonical identifier",
			zap.String("event_id", event.EventID),
			zap.String("field", w.Field),
			zap.String("raw", w.Raw),
			zap.String("substitute", w.Substitute))
	}

	// Client-stamped events carry a retry identity; server-stamped ones
	// are unique by construction.
	if s.idem != nil && in.Timestamp > 0 {
		existingID, duplicate, err := s.idem.Register(ctx, dedupKey(in), event.EventID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			s.log.Info("Skipping duplicate event",
				zap.String("event_id", existingID),
				zap.String("website_id", event.WebsiteID))
			return &dto.IngestEventResponse{EventID: existingID, EventTime: event.EventTime}, nil
		}
	}

	if _, err := s.repo.WriteFanout(ctx, event); err != nil {
		return nil, err
	}

	// Realtime delivery failures are logged inside the broker and never
	// surface here: the write already succeeded.
	if s.notifier != nil {
		s.notifier.Notify(ctx, event.WebsiteID, event)
	}

	return &dto.IngestEventResponse{EventID: event.EventID, EventTime: event.EventTime}, nil
}

// IngestBatch processes events with per-item isolation: one bad event does
// not abort the batch.
func (s *EventService) IngestBatch(ctx context.Context, events []domain.EventInput) *dto.IngestBatchResponse {
	resp := &dto.IngestBatchResponse{
		Processed: make([]dto.IngestEventResponse, 0, len(events)),
	}

	for i := range events {
		result, err := s.IngestEvent(ctx, &events[i])
		if err != nil {
			s.log.Warn("Failed to ingest event in batch",
				zap.Int("index", i),
				zap.Error(err))
			resp.Errors = append(resp.Errors, dto.BatchItemError{Index: i, Reason: err.Error()})
			continue
		}
		resp.Processed = append(resp.Processed, *result)
	}

	return resp
}

// QueryEvents serves a read from the projection matching the filter.
func (s *EventService) QueryEvents(ctx context.Context, req *dto.QueryEventsRequest) (*dto.QueryEventsResponse, error) {
	filter := query.Filter{
		WebsiteID: req.WebsiteID,
		VisitorID: req.VisitorID,
		SessionID: req.SessionID,
		EventType: req.EventType,
		Limit:     req.Limit,
		PageToken: req.PageToken,
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "start_date", Reason: "expected YYYY-MM-DD"}
		}
		filter.StartDate = start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "end_date", Reason: "expected YYYY-MM-DD"}
		}
		filter.EndDate = end
	}

	page, err := s.router.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	events := page.Events
	if events == nil {
		events = []*domain.Event{}
	}

	return &dto.QueryEventsResponse{
		Events:        events,
		HasMore:       page.HasMore,
		NextPageToken: page.NextPageToken,
	}, nil
}
