package directory

import (
	"context"
	"sync"
)

// Memory is an in-memory SiteDirectory for tests and local development.
type Memory struct {
	mu       sync.RWMutex
	owners   map[string]string
	grants   map[string]map[string]bool
	accounts map[string]bool
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		owners:   make(map[string]string),
		grants:   make(map[string]map[string]bool),
		accounts: make(map[string]bool),
	}
}

// AddWebsite registers a website under an owning account and marks the
// account active.
func (m *Memory) AddWebsite(websiteID, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[websiteID] = accountID
	m.accounts[accountID] = true
}

// AddGrant entitles an account to a website it does not own and marks the
// account active.
func (m *Memory) AddGrant(websiteID, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grants[websiteID] == nil {
		m.grants[websiteID] = make(map[string]bool)
	}
	m.grants[websiteID][accountID] = true
	m.accounts[accountID] = true
}

// SetAccountActive toggles an account's active flag.
func (m *Memory) SetAccountActive(accountID string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[accountID] = active
}

func (m *Memory) OwnerOf(ctx context.Context, websiteID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[websiteID]
	if !ok {
		return "", ErrWebsiteUnknown
	}
	return owner, nil
}

func (m *Memory) Entitled(ctx context.Context, accountID, websiteID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.owners[websiteID] == accountID {
		return true, nil
	}
	return m.grants[websiteID][accountID], nil
}

func (m *Memory) AccountActive(ctx context.Context, accountID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[accountID], nil
}
