package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/repository"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// Notifier surfaces a durably stored event to realtime subscribers. The
// broker lives in the API process, so the consumer reaches it through a
// relay publisher.
type Notifier interface {
	Notify(ctx context.Context, websiteID string, event *domain.Event)
}

// BatchWriter batches validated events and fans each batch out to all four
// projections. A nil notifier disables realtime fan-out.
type BatchWriter struct {
	repository repository.EventRepository
	config     BatchWriterConfig
	notifier   Notifier
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(repo repository.EventRepository, config BatchWriterConfig, notifier Notifier, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		repository: repo,
		config:     config,
		notifier:   notifier,
		log:        log,
	}
}

// Start begins processing envelopes, batching, and writing to the repository
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			if len(batch) > 0 {
				w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
				w.processBatch(ctx, batch)
			}
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				if len(batch) > 0 {
					w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
					w.processBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= w.config.MaxBatchSize {
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// processBatch fans the batch out to the projections and acks or nacks
// every envelope by the outcome. A partial fan-out nacks the whole batch:
// redelivery re-inserts into every projection, which the MergeTree layout
// tolerates, while a lost projection write would not repair itself.
func (w *BatchWriter) processBatch(ctx context.Context, envelopes []*Envelope) {
	if len(envelopes) == 0 {
		return
	}

	events := make([]*domain.Event, len(envelopes))
	for i, env := range envelopes {
		events[i] = env.Event
	}

	writtenCount, err := w.repository.WriteFanoutBatch(ctx, events)

	if err != nil {
		w.log.Error("Failed to fan out batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	if writtenCount != len(events) {
		w.log.Warn("Partial fan-out success",
			zap.Int("written", writtenCount),
			zap.Int("expected", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	w.log.Info("Successfully fanned out events",
		zap.Int("count", writtenCount))
	w.ackAll(ctx, envelopes)

	if w.notifier != nil {
		for _, event := range events {
			w.notifier.Notify(ctx, event.WebsiteID, event)
		}
	}
}

// ackAll acknowledges all envelopes (deletes from the queue)
func (w *BatchWriter) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			w.log.Error("Failed to ack envelope", zap.Error(err))
		}
	}
}

// nackAll negatively acknowledges all envelopes (leaves in the queue for retry)
func (w *BatchWriter) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			w.log.Error("Failed to nack envelope", zap.Error(err))
		}
	}
}
