package clickhouse

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/directory"
)

// Directory implements directory.SiteDirectory against the websites table.
type Directory struct {
	client *Client
	log    *zap.Logger
}

// NewDirectory creates a ClickHouse-backed site directory.
func NewDirectory(client *Client, log *zap.Logger) *Directory {
	return &Directory{
		client: client,
		log:    log,
	}
}

// OwnerOf returns the account owning websiteID.
func (d *Directory) OwnerOf(ctx context.Context, websiteID string) (string, error) {
	query := `
		SELECT account_id FROM websites FINAL
		WHERE website_id = ? AND active = 1
		LIMIT 1
	`

	var accountID string
	row := d.client.Conn().QueryRow(ctx, query, websiteID)
	if err := row.Scan(&accountID); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("failed to resolve website owner: %w", err)
		}
		return "", directory.ErrWebsiteUnknown
	}

	return accountID, nil
}

// Entitled reports whether accountID may subscribe to websiteID, as its
// owner or through an explicit grant.
func (d *Directory) Entitled(ctx context.Context, accountID, websiteID string) (bool, error) {
	owner, err := d.OwnerOf(ctx, websiteID)
	if err == nil && owner == accountID {
		return true, nil
	}

	query := `
		SELECT count() FROM website_grants FINAL
		WHERE website_id = ? AND account_id = ?
	`

	var count uint64
	row := d.client.Conn().QueryRow(ctx, query, websiteID, accountID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("failed to resolve website grant: %w", err)
	}

	return count > 0, nil
}

// AccountActive reports whether accountID owns at least one active website
// or holds a grant on one. A grant-only account must still be able to
// connect, or its entitlements would be unreachable.
func (d *Directory) AccountActive(ctx context.Context, accountID string) (bool, error) {
	query := `
		SELECT count() FROM (
			SELECT website_id FROM websites FINAL
			WHERE account_id = ? AND active = 1
			UNION ALL
			SELECT website_id FROM website_grants FINAL
			WHERE account_id = ?
		)
	`

	var count uint64
	row := d.client.Conn().QueryRow(ctx, query, accountID, accountID)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("failed to resolve account status: %w", err)
	}

	return count > 0, nil
}
