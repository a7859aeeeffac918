package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/config"
)

const keyPrefix = "ingest:dedup:"

// Checker decides whether an ingested event has been seen before. Register
// returns the previously stored event id when the key is a duplicate.
type Checker interface {
	Register(ctx context.Context, key, eventID string) (string, bool, error)
}

// Valkey implements Checker over a Valkey/Redis instance with SET NX and a
// TTL. When FailOpen is set, an unreachable store is treated as first-seen
// so ingestion never stalls on the dedup cache.
type Valkey struct {
	client   *redis.Client
	ttl      time.Duration
	failOpen bool
	log      *zap.Logger
}

// NewValkey creates the idempotency checker and verifies connectivity.
func NewValkey(ctx context.Context, cfg config.Valkey, log *zap.Logger) (*Valkey, error) {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		if !cfg.FailOpen {
			return nil, fmt.Errorf("failed to ping valkey: %w", err)
		}
		log.Warn("Valkey unreachable at startup, continuing fail-open", zap.Error(err))
	}

	return &Valkey{
		client:   client,
		ttl:      time.Duration(cfg.TTLSec) * time.Second,
		failOpen: cfg.FailOpen,
		log:      log,
	}, nil
}

// Register stores key -> eventID unless the key already exists. Returns
// the stored event id and whether the key was a duplicate.
func (v *Valkey) Register(ctx context.Context, key, eventID string) (string, bool, error) {
	fullKey := keyPrefix + key

	set, err := v.client.SetNX(ctx, fullKey, eventID, v.ttl).Result()
	if err != nil {
		if v.failOpen {
			v.log.Warn("Idempotency check unavailable, proceeding fail-open",
				zap.String("event_id", eventID),
				zap.Error(err))
			return eventID, false, nil
		}
		return "", false, fmt.Errorf("idempotency check failed: %w", err)
	}

	if set {
		return eventID, false, nil
	}

	existing, err := v.client.Get(ctx, fullKey).Result()
	if err != nil {
		// Key expired between SetNX and Get; treat as first-seen.
		return eventID, false, nil
	}

	return existing, true, nil
}

// Close releases the underlying client.
func (v *Valkey) Close() error {
	return v.client.Close()
}
