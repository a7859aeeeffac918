package dto

import (
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// IngestBatchRequest represents a batch ingestion request. Items are
// isolated downstream: one bad event does not abort the batch.
type IngestBatchRequest struct {
	Events []domain.EventInput `json:"events" binding:"required,min=1,max=1000"`
}

// QueryEventsRequest represents an event query. Exactly one of the scoped
// filters (session, visitor, event type) narrows the projection choice;
// with none of them set the global day feed is served.
type QueryEventsRequest struct {
	WebsiteID string `form:"website_id" binding:"required"`
	VisitorID string `form:"visitor_id"`
	SessionID string `form:"session_id"`
	EventType string `form:"event_type"`
	StartDate string `form:"start_date"` // YYYY-MM-DD, UTC
	EndDate   string `form:"end_date"`   // YYYY-MM-DD, UTC
	Limit     int    `form:"limit"`
	PageToken string `form:"page_token"`
}
