// Package presence tracks how many members each seed's room has.
package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/beka-birhanu/vinom-maze/service/i"
)

// LocalPresence counts members in process memory. It is used when no redis
// is configured.
type LocalPresence struct {
	counts map[string]int64
	sync.Mutex
}

var _ i.Presence = &LocalPresence{}

func NewLocalPresence() *LocalPresence {
	return &LocalPresence{counts: make(map[string]int64)}
}

func (p *LocalPresence) Joined(_ context.Context, seed string) error {
	p.Lock()
	defer p.Unlock()
	p.counts[seed]++
	return nil
}

func (p *LocalPresence) Left(_ context.Context, seed string) error {
	p.Lock()
	defer p.Unlock()
	p.counts[seed]--
	if p.counts[seed] <= 0 {
		delete(p.counts, seed)
	}
	return nil
}

// Busiest orders seeds by count, ties broken by seed.
func (p *LocalPresence) Busiest(_ context.Context, limit int64) ([]i.SeedCount, error) {
	p.Lock()
	counts := make([]i.SeedCount, 0, len(p.counts))
	for seed, n := range p.counts {
		counts = append(counts, i.SeedCount{Seed: seed, Members: n})
	}
	p.Unlock()

	sort.Slice(counts, func(a, b int) bool {
		if counts[a].Members != counts[b].Members {
			return counts[a].Members > counts[b].Members
		}
		return counts[a].Seed < counts[b].Seed
	})

	if limit < 0 {
		limit = 0
	}
	if int64(len(counts)) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}
