package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/directory"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
)

// Transport delivers outbound messages to one live connection. Send must
// not block indefinitely; a transport that cannot keep up should fail fast
// and let the broker log and move on.
type Transport interface {
	Send(msg OutboundMessage) error
}

// Conn is the ephemeral record of one live connection. Subscriptions are
// process-lifetime only and rebuilt from scratch on reconnect.
type Conn struct {
	ID        string
	AccountID string
	transport Transport
	websites  map[string]struct{}
}

// Broker tracks live connections and their website subscriptions, and fans
// newly ingested events out to subscribers. One instance is constructed at
// process start and handed to every connection handler; the registry and
// the website reverse index share a single mutex so that subscribe,
// unsubscribe, disconnect and notify are linearizable with respect to each
// other.
type Broker struct {
	dir directory.SiteDirectory
	log *zap.Logger

	mu sync.Mutex
	// conns is the forward registry, keyed by connection id.
	conns map[string]*Conn
	// subscribers is the reverse index: website id to the set of
	// connection ids subscribed to it. Entries are pruned when empty.
	subscribers map[string]map[string]struct{}
	// byAccount maps an account to its most recent live connection, used
	// for the implicit owner broadcast.
	byAccount map[string]string
}

// NewBroker creates a new subscription broker
func NewBroker(dir directory.SiteDirectory, log *zap.Logger) *Broker {
	return &Broker{
		dir:         dir,
		log:         log,
		conns:       make(map[string]*Conn),
		subscribers: make(map[string]map[string]struct{}),
		byAccount:   make(map[string]string),
	}
}

// Connect registers a connection for an authenticated account. It fails
// with ErrAuthFailed when the identity does not resolve to an active
// account.
func (b *Broker) Connect(ctx context.Context, accountID string, transport Transport) (*Conn, error) {
	active, err := b.dir.AccountActive(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account %s: %w", accountID, err)
	}
	if !active {
		return nil, domain.ErrAuthFailed
	}

	conn := &Conn{
		ID:        uuid.NewString(),
		AccountID: accountID,
		transport: transport,
		websites:  make(map[string]struct{}),
	}

	b.mu.Lock()
	b.conns[conn.ID] = conn
	b.byAccount[accountID] = conn.ID
	b.mu.Unlock()

	b.log.Info("Connection registered",
		zap.String("connection_id", conn.ID),
		zap.String("account_id", accountID))

	return conn, nil
}

// Subscribe adds a website to a connection's subscription set after an
// entitlement check. Subscribing twice is a no-op success; a failed check
// reports ErrAccessDenied and leaves all state untouched.
func (b *Broker) Subscribe(ctx context.Context, connID, websiteID string) error {
	b.mu.Lock()
	conn, ok := b.conns[connID]
	b.mu.Unlock()
	if !ok {
		return domain.ErrAuthFailed
	}

	// Entitlement resolution does I/O, so it happens outside the index
	// lock.
	entitled, err := b.dir.Entitled(ctx, conn.AccountID, websiteID)
	if err != nil || !entitled {
		b.log.Warn("Subscribe denied",
			zap.String("connection_id", connID),
			zap.String("account_id", conn.AccountID),
			zap.String("website_id", websiteID),
			zap.Error(err))
		return domain.ErrAccessDenied
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// The connection may have been torn down while the entitlement check
	// ran; never resurrect index entries for a gone connection.
	if _, ok := b.conns[connID]; !ok {
		return domain.ErrAuthFailed
	}

	conn.websites[websiteID] = struct{}{}
	set, ok := b.subscribers[websiteID]
	if !ok {
		set = make(map[string]struct{})
		b.subscribers[websiteID] = set
	}
	set[connID] = struct{}{}

	return nil
}

// Unsubscribe removes a website from both indices. It always succeeds,
// even when no subscription existed; an empty reverse-index entry is
// removed entirely.
func (b *Broker) Unsubscribe(connID, websiteID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if conn, ok := b.conns[connID]; ok {
		delete(conn.websites, websiteID)
	}

	if set, ok := b.subscribers[websiteID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(b.subscribers, websiteID)
		}
	}
}

// Disconnect removes a connection from every reverse-index entry it
// belonged to and deletes its record. Teardown is idempotent and atomic
// with respect to Notify: once it returns, no in-flight notify can observe
// the connection.
func (b *Broker) Disconnect(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, ok := b.conns[connID]
	if !ok {
		return
	}

	for websiteID := range conn.websites {
		if set, ok := b.subscribers[websiteID]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(b.subscribers, websiteID)
			}
		}
	}

	if b.byAccount[conn.AccountID] == connID {
		delete(b.byAccount, conn.AccountID)
	}

	delete(b.conns, connID)

	b.log.Info("Connection removed",
		zap.String("connection_id", connID),
		zap.String("account_id", conn.AccountID))
}

// Notify delivers a freshly ingested event to every connection subscribed
// to the website, plus the website owner's live connection when it is not
// already among the subscribers. Each distinct connection receives the
// event exactly once; per-recipient delivery failures are logged and do
// not abort delivery to the rest.
func (b *Broker) Notify(ctx context.Context, websiteID string, event *domain.Event) {
	// Owner resolution does I/O and stays outside the critical section.
	owner, err := b.dir.OwnerOf(ctx, websiteID)
	if err != nil {
		b.log.Warn("Owner broadcast skipped: website not resolvable",
			zap.String("website_id", websiteID),
			zap.String("event_id", event.EventID),
			zap.Error(err))
		owner = ""
	}

	msg := OutboundMessage{
		Type:      TypeNewEvent,
		WebsiteID: websiteID,
		Event:     event,
	}

	// Snapshot recipients under the lock; deliver outside it so a slow
	// transport never blocks index operations.
	b.mu.Lock()
	recipients := make(map[string]Transport, len(b.subscribers[websiteID])+1)
	for connID := range b.subscribers[websiteID] {
		if conn, ok := b.conns[connID]; ok {
			recipients[connID] = conn.transport
		}
	}
	if owner != "" {
		if ownerConnID, ok := b.byAccount[owner]; ok {
			if _, already := recipients[ownerConnID]; !already {
				if conn, ok := b.conns[ownerConnID]; ok {
					recipients[ownerConnID] = conn.transport
				}
			}
		}
	}
	b.mu.Unlock()

	for connID, transport := range recipients {
		if err := transport.Send(msg); err != nil {
			b.log.Warn("Failed to deliver event to connection",
				zap.String("connection_id", connID),
				zap.String("website_id", websiteID),
				zap.String("event_id", event.EventID),
				zap.Error(err))
		}
	}
}
