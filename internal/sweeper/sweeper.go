// Package sweeper prunes aged-out revocation entries so the ban list stays
// bounded under sustained logout volume.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/photo-share-backend/internal/cache"
	"github.com/iliyamo/photo-share-backend/internal/model"
	"github.com/iliyamo/photo-share-backend/internal/repository"
	"github.com/iliyamo/photo-share-backend/internal/utils"
)

// Sweeper periodically scans the ban list and deletes "logout" entries whose
// revoked token has passed its natural expiry.  Administrative bans are never
// swept: a ban is permanent until an explicit unban.  The cadence is a
// tunable, not a correctness knob; revoked tokens stay dead either way.
type Sweeper struct {
	Secret   string        // JWT secret, needed to read the embedded expiry
	Bans     *repository.BanRepo
	Banned   *cache.BanList
	Interval time.Duration
}

func New(secret string, bans *repository.BanRepo, banned *cache.BanList, interval time.Duration) *Sweeper {
	return &Sweeper{Secret: secret, Bans: bans, Banned: banned, Interval: interval}
}

// Run executes sweep passes on the configured interval until the context is
// cancelled.  Intended to run as a goroutine detached from request handling.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			passCtx, cancel := context.WithTimeout(ctx, time.Minute)
			removed, err := s.SweepOnce(passCtx)
			cancel()
			if err != nil {
				log.Printf("sweeper: pass failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("sweeper: removed %d expired logout revocations", removed)
			}
		}
	}
}

// SweepOnce runs a single pass and returns how many entries were removed.
// A token that no longer decodes is already unusable and counts as expired;
// decode failures never abort the pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	records, err := s.Bans.All(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for _, rec := range records {
		if rec.Reason != model.ReasonLogout {
			continue
		}
		exp, err := utils.TokenExpiry(s.Secret, rec.AccessToken)
		if err == nil && now.Before(exp) {
			continue // still within its natural lifetime
		}
		if err := s.Bans.Remove(ctx, rec.AccessToken); err != nil {
			log.Printf("sweeper: remove entry %d failed: %v", rec.ID, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		// The cache may still hold the removed tokens; drop it so the next
		// request rebuilds from the trimmed ledger.
		s.Banned.Invalidate(ctx)
	}
	return removed, nil
}
