package clickhouse

import (
	"context"
	"fmt"
)

// Every projection carries the full denormalized event row; only the
// partitioning and sort keys differ. The day-partitioned projections bound
// partition size by calendar day; the visitor and session projections trade
// day partitioning for direct key lookups.
const eventColumnsDDL = `
	event_id String,
	website_id String,
	visitor_id String,
	session_id String,
	user_id String,
	event_date Date,
	event_time DateTime64(3),
	event_type LowCardinality(String),
	event_name LowCardinality(String),
	page_url String,
	page_path String,
	page_title String,
	referrer String,
	browser LowCardinality(String),
	os LowCardinality(String),
	device LowCardinality(String),
	screen LowCardinality(String),
	language LowCardinality(String),
	country LowCardinality(String),
	city String,
	utm_source String,
	utm_medium String,
	utm_campaign String,
	utm_content String,
	utm_term String,
	properties Map(String, String)
`

var projectionDDL = map[string]string{
	"events_by_day": fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS events_by_day (%s)
	ENGINE = MergeTree
	PARTITION BY event_date
	ORDER BY (website_id, event_date, event_time, event_id)
	SETTINGS index_granularity = 8192
	`, eventColumnsDDL),

	"events_by_visitor": fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS events_by_visitor (%s)
	ENGINE = MergeTree
	PARTITION BY toYYYYMM(event_date)
	ORDER BY (website_id, visitor_id, event_time, event_id)
	SETTINGS index_granularity = 8192
	`, eventColumnsDDL),

	"events_by_session": fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS events_by_session (%s)
	ENGINE = MergeTree
	PARTITION BY toYYYYMM(event_date)
	ORDER BY (website_id, session_id, event_time, event_id)
	SETTINGS index_granularity = 8192
	`, eventColumnsDDL),

	"events_by_type_day": fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS events_by_type_day (%s)
	ENGINE = MergeTree
	PARTITION BY event_date
	ORDER BY (website_id, event_type, event_date, event_time, event_id)
	SETTINGS index_granularity = 8192
	`, eventColumnsDDL),
}

const websitesDDL = `
	CREATE TABLE IF NOT EXISTS websites (
		website_id String,
		account_id String,
		domain String,
		active UInt8 DEFAULT 1,
		updated_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY website_id
`

const websiteGrantsDDL = `
	CREATE TABLE IF NOT EXISTS website_grants (
		website_id String,
		account_id String,
		updated_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (website_id, account_id)
`

// InitSchema creates the four event projections and the websites directory
// tables if they do not exist.
func (r *Repository) InitSchema(ctx context.Context) error {
	for table, ddl := range projectionDDL {
		if err := r.client.Conn().Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table, err)
		}
	}

	if err := r.client.Conn().Exec(ctx, websitesDDL); err != nil {
		return fmt.Errorf("failed to create websites table: %w", err)
	}

	if err := r.client.Conn().Exec(ctx, websiteGrantsDDL); err != nil {
		return fmt.Errorf("failed to create website_grants table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}
