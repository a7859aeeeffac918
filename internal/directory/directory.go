package directory

import (
	"context"
	"errors"
)

// ErrWebsiteUnknown is returned when a website id does not resolve to a
// registered website.
var ErrWebsiteUnknown = errors.New("website unknown")

// SiteDirectory resolves website ownership and account status. Admin CRUD
// over websites and accounts lives outside this subsystem; the broker and
// the realtime gateway only ever read.
type SiteDirectory interface {
	// OwnerOf returns the account id owning websiteID, or ErrWebsiteUnknown.
	OwnerOf(ctx context.Context, websiteID string) (string, error)

	// Entitled reports whether accountID may subscribe to websiteID,
	// either as its owner or through an explicit grant.
	Entitled(ctx context.Context, accountID, websiteID string) (bool, error)

	// AccountActive reports whether accountID resolves to an active account.
	AccountActive(ctx context.Context, accountID string) (bool, error)
}
