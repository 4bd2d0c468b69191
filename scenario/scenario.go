package scenario

import (
	"math/rand"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/cache/tagging"
	"github.com/sarchlab/cachequiz/cache/trace"
	"github.com/sarchlab/cachequiz/memory"
)

// A Scenario is one generated exercise. It owns its memory and its cache;
// no state is shared between scenarios.
type Scenario struct {
	id  string
	cfg Config
	rng *rand.Rand

	memory  *memory.Storage
	cache   *cache.Cache
	counter *trace.OutcomeCounter

	initial []tagging.Set
	records []cache.AccessRecord
}

// ID returns the scenario ID.
func (s *Scenario) ID() string {
	return s.id
}

// Config returns the configuration the scenario was generated with. The
// seed and fill policy are the ones actually used.
func (s *Scenario) Config() Config {
	cfg := s.cfg
	cfg.Addresses = append([]uint64(nil), s.cfg.Addresses...)

	return cfg
}

// Seed returns the seed of the random source.
func (s *Scenario) Seed() int64 {
	return s.cfg.Seed
}

// Memory returns the backing memory.
func (s *Scenario) Memory() *memory.Storage {
	return s.memory
}

// Cache returns the simulated cache in its final state.
func (s *Scenario) Cache() *cache.Cache {
	return s.cache
}

// InitialSets returns a copy of the cache state before the first access.
func (s *Scenario) InitialSets() []tagging.Set {
	sets := make([]tagging.Set, len(s.initial))
	for i, set := range s.initial {
		sets[i] = set.Clone()
	}

	return sets
}

// Records returns the simulated accesses in order.
func (s *Scenario) Records() []cache.AccessRecord {
	return append([]cache.AccessRecord(nil), s.records...)
}

// Outcomes returns the hit, miss, write-back and eviction counts of the
// trace.
func (s *Scenario) Outcomes() trace.OutcomeCounter {
	return *s.counter
}
