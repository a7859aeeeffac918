package dto

import (
	"time"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// IngestEventResponse represents a successful event ingestion response
type IngestEventResponse struct {
	EventID   string    `json:"event_id"`
	EventTime time.Time `json:"event_time"`
}

// BatchItemError reports a rejected event within a batch by its index.
type BatchItemError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// IngestBatchResponse represents a batch ingestion response with per-item
// outcomes.
type IngestBatchResponse struct {
	Processed []IngestEventResponse `json:"processed"`
	Errors    []BatchItemError      `json:"errors,omitempty"`
}

// QueryEventsResponse represents a time-ordered page of events.
type QueryEventsResponse struct {
	Events        []*domain.Event `json:"events"`
	HasMore       bool            `json:"has_more"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}
