package service

import (
	"context"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/dto"
)

// EventServicer defines the interface for event ingestion and query
// operations.
type EventServicer interface {
	IngestEvent(ctx context.Context, in *domain.EventInput) (*dto.IngestEventResponse, error)
	IngestBatch(ctx context.Context, events []domain.EventInput) *dto.IngestBatchResponse
	QueryEvents(ctx context.Context, req *dto.QueryEventsRequest) (*dto.QueryEventsResponse, error)
}
