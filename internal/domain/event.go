package domain

import "time"

// Event represents a single tracked behavioral event. Events are immutable
// once created: the storage layer never updates or deletes them.
type Event struct {
	EventID   string `ch:"event_id" json:"event_id"`
	WebsiteID string `ch:"website_id" json:"website_id"`
	VisitorID string `ch:"visitor_id" json:"visitor_id"`
	SessionID string `ch:"session_id" json:"session_id"`
	// UserID is empty for anonymous visitors.
	UserID string `ch:"user_id" json:"user_id,omitempty"`

	// EventDate is the UTC calendar day of EventTime and a partition-key
	// component on the day-partitioned projections.
	EventDate time.Time `ch:"event_date" json:"event_date"`
	EventTime time.Time `ch:"event_time" json:"event_time"`

	EventType string `ch:"event_type" json:"event_type"`
	EventName string `ch:"event_name" json:"event_name"`

	PageURL   string `ch:"page_url" json:"page_url,omitempty"`
	PagePath  string `ch:"page_path" json:"page_path,omitempty"`
	PageTitle string `ch:"page_title" json:"page_title,omitempty"`
	Referrer  string `ch:"referrer" json:"referrer,omitempty"`

	Browser string `ch:"browser" json:"browser,omitempty"`
	OS      string `ch:"os" json:"os,omitempty"`
	Device  string `ch:"device" json:"device,omitempty"`
	Screen  string `ch:"screen" json:"screen,omitempty"`

	Language string `ch:"language" json:"language,omitempty"`
	Country  string `ch:"country" json:"country,omitempty"`
	City     string `ch:"city" json:"city,omitempty"`

	UTMSource   string `ch:"utm_source" json:"utm_source,omitempty"`
	UTMMedium   string `ch:"utm_medium" json:"utm_medium,omitempty"`
	UTMCampaign string `ch:"utm_campaign" json:"utm_campaign,omitempty"`
	UTMContent  string `ch:"utm_content" json:"utm_content,omitempty"`
	UTMTerm     string `ch:"utm_term" json:"utm_term,omitempty"`

	// Properties is an open extension bag, normalized to string values.
	Properties map[string]string `ch:"properties" json:"properties,omitempty"`
}

// Day returns the UTC calendar day of t with the time component dropped.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
