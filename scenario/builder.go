package scenario

import (
	"math/rand"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/cache/trace"
	"github.com/sarchlab/cachequiz/display"
	"github.com/sarchlab/cachequiz/hooking"
	"github.com/sarchlab/cachequiz/memory"
)

// Builder can build scenarios.
type Builder struct {
	cfg   Config
	name  string
	hooks []hooking.Hook
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithWays sets the associativity.
func (b Builder) WithWays(ways int) Builder {
	b.cfg.Ways = ways
	return b
}

// WithSetBits sets the width of the index field.
func (b Builder) WithSetBits(n int) Builder {
	b.cfg.SetBits = n
	return b
}

// WithBlockBits sets the width of the offset field.
func (b Builder) WithBlockBits(n int) Builder {
	b.cfg.BlockBits = n
	return b
}

// WithAddrBits sets the address width. Memory holds 2^n bytes.
func (b Builder) WithAddrBits(n int) Builder {
	b.cfg.AddrBits = n
	return b
}

// WithBase sets the base that addresses and tags are displayed in.
func (b Builder) WithBase(base display.Base) Builder {
	b.cfg.Base = base
	return b
}

// WithShowValid sets whether the learner sees the valid bits.
func (b Builder) WithShowValid(show bool) Builder {
	b.cfg.ShowValid = show
	return b
}

// WithShowDirty sets whether the learner sees the dirty bits.
func (b Builder) WithShowDirty(show bool) Builder {
	b.cfg.ShowDirty = show
	return b
}

// WithFill sets the fill policy.
func (b Builder) WithFill(fill FillPolicy) Builder {
	b.cfg.Fill = fill
	return b
}

// WithAccessConstraints asks for n generated accesses of which at least
// minHits hit and at least minMisses miss.
func (b Builder) WithAccessConstraints(n, minHits, minMisses int) Builder {
	b.cfg.NumAddr = n
	b.cfg.MinHits = minHits
	b.cfg.MinMisses = minMisses

	return b
}

// WithAddresses replays the given addresses instead of generating them.
func (b Builder) WithAddresses(addresses ...uint64) Builder {
	b.cfg.Addresses = append([]uint64(nil), addresses...)
	return b
}

// WithSeed sets the random seed. Zero picks a seed from the clock.
func (b Builder) WithSeed(seed int64) Builder {
	b.cfg.Seed = seed
	return b
}

// WithName sets the scenario ID. A unique ID is generated when not set.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithHook attaches a hook to the simulated cache.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hook)
	return b
}

// Build validates the configuration, then generates the initial state and
// simulates the access trace. A *ConfigError is returned before any state
// is created.
func (b Builder) Build() (*Scenario, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scenario{
		id:      b.name,
		cfg:     b.cfg,
		counter: trace.NewOutcomeCounter(),
	}

	if s.id == "" {
		s.id = xid.New().String()
	}

	if s.cfg.Seed == 0 {
		s.cfg.Seed = time.Now().UnixNano()
	}

	s.cfg.Fill = s.cfg.EffectiveFill()
	s.rng = rand.New(rand.NewSource(s.cfg.Seed))

	s.memory = memory.NewStorage(uint64(1) << s.cfg.AddrBits)
	s.memory.Randomize(s.rng)

	b.buildCache(s)

	s.fill()
	s.initial = s.cache.Sets()

	s.run()

	return s, nil
}

func (b Builder) buildCache(s *Scenario) {
	mapper, err := cache.NewAddressMapper(
		s.cfg.AddrBits, s.cfg.SetBits, s.cfg.BlockBits)
	if err != nil {
		panic(err)
	}

	cb := cache.MakeBuilder().
		WithWayAssociativity(s.cfg.Ways).
		WithMapper(mapper).
		WithBackingStore(s.memory).
		WithHook(s.counter)

	for _, h := range b.hooks {
		cb = cb.WithHook(h)
	}

	s.cache = cb.Build(s.id)
}

// Generate builds a scenario from a configuration.
func Generate(cfg Config) (*Scenario, error) {
	return MakeBuilder().WithConfig(cfg).Build()
}
