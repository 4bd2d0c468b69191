package cache

import (
	"github.com/sarchlab/cachequiz/cache/tagging"
	"github.com/sarchlab/cachequiz/hooking"
)

// Builder can build caches.
type Builder struct {
	wayAssociativity int
	mapper           AddressMapper
	backing          BackingStore
	victimFinder     tagging.VictimFinder
	hooks            []hooking.Hook
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		wayAssociativity: 2,
		mapper: AddressMapper{
			AddrBits:  5,
			SetBits:   1,
			BlockBits: 1,
		},
	}
}

// WithWayAssociativity sets the way associativity of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithMapper sets how addresses map to sets and blocks.
func (b Builder) WithMapper(mapper AddressMapper) Builder {
	b.mapper = mapper
	return b
}

// WithBackingStore sets the memory that misses load blocks from.
func (b Builder) WithBackingStore(backing BackingStore) Builder {
	b.backing = backing
	return b
}

// WithVictimFinder sets the replacement policy. LRU is used when not set.
func (b Builder) WithVictimFinder(victimFinder tagging.VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// WithHook registers a hook on the cache that is built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), hook)
	return b
}

// Build creates a cache with every line invalid.
func (b Builder) Build(name string) *Cache {
	b.mustBeValid()

	c := &Cache{
		name:         name,
		mapper:       b.mapper,
		backing:      b.backing,
		victimFinder: b.victimFinder,
	}

	if c.victimFinder == nil {
		c.victimFinder = tagging.NewLRUVictimFinder()
	}

	c.tags = tagging.NewTagArray(
		int(b.mapper.NumSets()),
		b.wayAssociativity,
		int(b.mapper.BlockSize()),
	)

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	return c
}

func (b Builder) mustBeValid() {
	if b.wayAssociativity < 1 {
		panic("way associativity must be at least 1")
	}

	if b.backing == nil {
		panic("a backing store is required")
	}

	if _, err := NewAddressMapper(
		b.mapper.AddrBits, b.mapper.SetBits, b.mapper.BlockBits,
	); err != nil {
		panic(err)
	}
}
