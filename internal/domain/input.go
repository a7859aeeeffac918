package domain

import "encoding/json"

// EventInput carries the raw attributes of one event as produced by the
// tracker or the collector queue, before validation and canonicalization.
type EventInput struct {
	WebsiteID string `json:"website_id"`
	VisitorID string `json:"visitor_id"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	// Timestamp is milliseconds since the Unix epoch. Zero means the server
	// assigns the event time at ingestion.
	Timestamp int64 `json:"timestamp"`

	EventType string `json:"event_type"`
	EventName string `json:"event_name"`

	PageURL   string `json:"page_url"`
	PagePath  string `json:"page_path"`
	PageTitle string `json:"page_title"`
	Referrer  string `json:"referrer"`

	UserAgent string `json:"user_agent"`
	Screen    string `json:"screen"`
	Language  string `json:"language"`
	Country   string `json:"country"`
	City      string `json:"city"`

	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMContent  string `json:"utm_content"`
	UTMTerm     string `json:"utm_term"`

	// Properties is decoded leniently: anything that is not a JSON object is
	// discarded rather than rejected.
	Properties json.RawMessage `json:"properties"`
}
