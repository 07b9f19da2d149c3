// Package cache holds the in-process mirror of the ban list.  Every
// authenticated request consults it, so the revocation check must not cost a
// database round-trip each time.
package cache

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/photo-share-backend/internal/repository"
)

// banListKey is the Redis key holding the serialized snapshot shared between
// processes.
const banListKey = "ban_list"

// BanList is a time-boxed snapshot of the ban_list table.  Lookups hit the
// snapshot while it is fresh; once it ages past the TTL (or after an explicit
// invalidation) the next lookup rebuilds it, preferring the shared Redis copy
// and falling back to the database.  The Redis client may be nil, in which
// case only the in-process snapshot is used and the service still works on a
// single node.
//
// A logout or ban calls Invalidate immediately after writing the ledger, so
// a revocation is visible to the very next request; staleness up to the TTL
// is only possible for reads that race no write at all.
type BanList struct {
    repo *repository.BanRepo
    rdb  *redis.Client // optional shared cache, nil disables it
    ttl  time.Duration

    mu        sync.Mutex
    snapshot  map[string]struct{}
    fetchedAt time.Time
}

// NewBanList builds the cache around its ledger and an optional Redis client.
// ttl is the freshness window for a snapshot; 25 minutes is a sensible
// default.
func NewBanList(repo *repository.BanRepo, rdb *redis.Client, ttl time.Duration) *BanList {
    return &BanList{repo: repo, rdb: rdb, ttl: ttl}
}

// IsBanned reports whether the access token currently has a revocation
// entry.  A store failure during refresh is returned to the caller, which
// must treat it as "deny" rather than "not banned".
func (b *BanList) IsBanned(ctx context.Context, accessToken string) (bool, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.snapshot == nil || time.Since(b.fetchedAt) >= b.ttl {
        if err := b.refreshLocked(ctx); err != nil {
            return false, err
        }
    }
    _, banned := b.snapshot[accessToken]
    return banned, nil
}

// Invalidate drops the snapshot (local and shared) so the next lookup reads
// the ledger again.  Called on every logout/ban write.
func (b *BanList) Invalidate(ctx context.Context) {
    b.mu.Lock()
    b.snapshot = nil
    b.mu.Unlock()
    if b.rdb != nil {
        // Best effort: a failed DEL only means the shared copy expires on
        // its own TTL; this process already forgot its snapshot.
        _ = b.rdb.Del(ctx, banListKey).Err()
    }
}

// refreshLocked rebuilds the snapshot.  The caller holds b.mu.
func (b *BanList) refreshLocked(ctx context.Context) error {
    if b.rdb != nil {
        if raw, err := b.rdb.Get(ctx, banListKey).Bytes(); err == nil {
            var tokens []string
            if json.Unmarshal(raw, &tokens) == nil {
                b.install(tokens)
                return nil
            }
            // Unreadable payload: fall through to the database.
        }
    }

    records, err := b.repo.All(ctx)
    if err != nil {
        return err
    }
    tokens := make([]string, 0, len(records))
    for _, rec := range records {
        tokens = append(tokens, rec.AccessToken)
    }
    b.install(tokens)

    if b.rdb != nil {
        if raw, err := json.Marshal(tokens); err == nil {
            _ = b.rdb.Set(ctx, banListKey, raw, b.ttl).Err()
        }
    }
    return nil
}

func (b *BanList) install(tokens []string) {
    snap := make(map[string]struct{}, len(tokens))
    for _, t := range tokens {
        snap[t] = struct{}{}
    }
    b.snapshot = snap
    b.fetchedAt = time.Now()
}
