// Package eviction reclassifies stale hot records as archived. Sweeps are
// triggered lazily from the read path (throttled per user) or invoked
// manually (never throttled).
package eviction

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/zcf0508/mem-mcp/internal/model"
	"github.com/zcf0508/mem-mcp/internal/store"
)

// DefaultMaxHot is the hot-directory capacity applied when none is given.
const DefaultMaxHot = 50

// Options control a single sweep.
type Options struct {
	// DryRun computes the classification without moving any file.
	DryRun bool
	// MaxHot is the hot capacity; <=0 means DefaultMaxHot.
	MaxHot int
}

// Result reports what a sweep did, or would do under DryRun.
type Result struct {
	Archived []string `json:"archived"`
	Kept     []string `json:"kept"`
}

// Sweeper applies the retention policy over a user's hot records.
type Sweeper struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewSweeper returns a Sweeper over st. now may be nil for time.Now.
func NewSweeper(st store.Store, log zerolog.Logger, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: st, log: log, now: now}
}

type candidate struct {
	name string
	meta model.Metadata
}

// Sweep classifies every hot record in policy order: P0 never moves; P2
// older than 30 days and P1 older than 90 days (by last access) move; then
// capacity overflow moves the oldest-accessed P2 records first, then P1,
// until the hot count fits MaxHot.
func (s *Sweeper) Sweep(ctx context.Context, token string, opts Options) (Result, error) {
	maxHot := opts.MaxHot
	if maxHot <= 0 {
		maxHot = DefaultMaxHot
	}

	names, err := s.store.List(ctx, token, store.Hot)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	var expired []candidate
	var kept []candidate
	for _, name := range names {
		rec, err := s.store.Load(ctx, token, name, store.Hot)
		if err != nil {
			s.log.Warn().Err(err).Str("token", token).Str("file", name).Msg("sweep: skipping unreadable record")
			continue
		}
		c := candidate{name: name, meta: rec.Meta}
		switch {
		case rec.Meta.Priority == model.PriorityP0:
			kept = append(kept, c)
		case rec.Meta.Priority.Retention() > 0 && now.Sub(rec.Meta.LastAccessedAt) > rec.Meta.Priority.Retention():
			expired = append(expired, c)
		default:
			kept = append(kept, c)
		}
	}

	archived := expired
	if overflow := len(kept) - maxHot; overflow > 0 {
		victims := capacityVictims(kept, overflow)
		archived = append(archived, victims...)
		kept = without(kept, victims)
	}

	result := Result{Archived: []string{}, Kept: []string{}}
	for _, c := range kept {
		result.Kept = append(result.Kept, c.name)
	}
	for _, c := range archived {
		result.Archived = append(result.Archived, c.name)
	}

	if opts.DryRun {
		return result, nil
	}

	for _, c := range archived {
		if err := s.store.MoveToArchive(ctx, token, c.name); err != nil {
			// A partially applied sweep is fine: re-running converges.
			s.log.Warn().Err(err).Str("token", token).Str("file", c.name).Msg("sweep: archive move failed")
		}
	}
	if len(result.Archived) > 0 {
		s.log.Info().Str("token", token).Int("archived", len(result.Archived)).Int("kept", len(result.Kept)).Msg("sweep complete")
	}
	return result, nil
}

// capacityVictims picks overflow records to archive: oldest-accessed first
// among P2, then among P1. P0 is never a candidate.
func capacityVictims(kept []candidate, overflow int) []candidate {
	var victims []candidate
	for _, prio := range []model.Priority{model.PriorityP2, model.PriorityP1} {
		if len(victims) == overflow {
			break
		}
		var pool []candidate
		for _, c := range kept {
			if c.meta.Priority == prio {
				pool = append(pool, c)
			}
		}
		sort.SliceStable(pool, func(a, b int) bool {
			return pool[a].meta.LastAccessedAt.Before(pool[b].meta.LastAccessedAt)
		})
		for _, c := range pool {
			if len(victims) == overflow {
				break
			}
			victims = append(victims, c)
		}
	}
	return victims
}

func without(all, drop []candidate) []candidate {
	dropped := make(map[string]bool, len(drop))
	for _, c := range drop {
		dropped[c.name] = true
	}
	var out []candidate
	for _, c := range all {
		if !dropped[c.name] {
			out = append(out, c)
		}
	}
	return out
}
