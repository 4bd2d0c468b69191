// Package scenario generates cache exercises. A scenario owns a random
// memory, a cache with an initial fill, and the simulated access trace
// whose outcomes form the answer key.
package scenario

import (
	"fmt"
	"strings"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/display"
)

// MaxAddrBits bounds the address width, and so the memory size, of a
// scenario.
const MaxAddrBits = 24

// ConfigError reports a configuration that cannot be generated.
type ConfigError = cache.ConfigError

// FillPolicy decides how the cache is populated before the first access.
type FillPolicy int

// The supported fill policies.
const (
	FillFull FillPolicy = iota
	FillEmpty
	FillPartial
)

// ParseFillPolicy parses "full", "empty" or "partial".
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return FillFull, nil
	case "empty":
		return FillEmpty, nil
	case "partial":
		return FillPartial, nil
	default:
		return FillFull, &ConfigError{Field: "fill",
			Reason: fmt.Sprintf("must be full, empty or partial, got %q", s)}
	}
}

func (p FillPolicy) String() string {
	switch p {
	case FillFull:
		return "full"
	case FillEmpty:
		return "empty"
	case FillPartial:
		return "partial"
	default:
		return fmt.Sprintf("FillPolicy(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p FillPolicy) MarshalText() ([]byte, error) {
	if p < FillFull || p > FillPartial {
		return nil, fmt.Errorf("unknown fill policy %d", int(p))
	}

	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *FillPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseFillPolicy(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// Config describes a scenario. When Addresses is not empty, the addresses
// are replayed in order and NumAddr, MinHits and MinMisses are ignored.
// Otherwise NumAddr accesses are generated so that at least MinHits hit and
// at least MinMisses miss.
type Config struct {
	Ways      int          `json:"ways"`
	SetBits   int          `json:"set_bits"`
	BlockBits int          `json:"block_bits"`
	AddrBits  int          `json:"addr_bits"`
	Base      display.Base `json:"base"`
	ShowValid bool         `json:"show_valid"`
	ShowDirty bool         `json:"show_dirty"`
	Fill      FillPolicy   `json:"fill"`

	NumAddr   int      `json:"num_addr"`
	MinHits   int      `json:"min_hits"`
	MinMisses int      `json:"min_misses"`
	Addresses []uint64 `json:"addresses,omitempty"`

	// Seed 0 picks a seed from the clock.
	Seed int64 `json:"seed"`
}

// DefaultConfig returns a two-way cache with two sets of two-byte blocks
// over a 32-byte memory, fully populated, with one generated access.
func DefaultConfig() Config {
	return Config{
		Ways:      2,
		SetBits:   1,
		BlockBits: 1,
		AddrBits:  5,
		Base:      display.Hex,
		Fill:      FillFull,
		NumAddr:   1,
	}
}

// Replay tells whether the config replays explicit addresses.
func (c Config) Replay() bool {
	return len(c.Addresses) > 0
}

// TagBits returns the width of the tag field.
func (c Config) TagBits() int {
	return c.AddrBits - c.SetBits - c.BlockBits
}

// EffectiveFill returns the fill policy actually used. A partially filled
// cache with hidden valid bits cannot be told apart from a full one, so it
// is filled fully.
func (c Config) EffectiveFill() FillPolicy {
	if c.Fill == FillPartial && !c.ShowValid {
		return FillFull
	}

	return c.Fill
}

// Validate reports the first problem that prevents generating the scenario.
// The returned error is a *ConfigError.
func (c Config) Validate() error {
	if err := c.validateGeometry(); err != nil {
		return err
	}

	if c.Base != display.Hex && c.Base != display.Bin {
		return &ConfigError{Field: "base", Reason: "must be hex or bin"}
	}

	if c.Fill < FillFull || c.Fill > FillPartial {
		return &ConfigError{Field: "fill", Reason: "must be full, empty or partial"}
	}

	if c.Replay() {
		return c.validateReplay()
	}

	return c.validateConstraints()
}

func (c Config) validateGeometry() error {
	if c.Ways < 1 {
		return &ConfigError{Field: "ways", Reason: "must be at least 1"}
	}

	if c.AddrBits > MaxAddrBits {
		return &ConfigError{Field: "addr_bits",
			Reason: fmt.Sprintf("must be at most %d", MaxAddrBits)}
	}

	mapper, err := cache.NewAddressMapper(c.AddrBits, c.SetBits, c.BlockBits)
	if err != nil {
		return err
	}

	linesInMemory := mapper.AddressSpace() / (mapper.NumSets() * mapper.BlockSize())
	if uint64(c.Ways) > linesInMemory {
		return &ConfigError{Field: "ways", Reason: fmt.Sprintf(
			"cache of %d ways x %d sets x %d bytes exceeds the %d-byte memory",
			c.Ways, mapper.NumSets(), mapper.BlockSize(), mapper.AddressSpace())}
	}

	return nil
}

func (c Config) validateReplay() error {
	space := uint64(1) << c.AddrBits

	for i, a := range c.Addresses {
		if a >= space {
			return &ConfigError{Field: "addresses", Reason: fmt.Sprintf(
				"address %d (0x%x) is outside the %d-bit address space",
				i, a, c.AddrBits)}
		}
	}

	return nil
}

func (c Config) validateConstraints() error {
	switch {
	case c.NumAddr < 0:
		return &ConfigError{Field: "num_addr", Reason: "must not be negative"}
	case c.MinHits < 0:
		return &ConfigError{Field: "min_hits", Reason: "must not be negative"}
	case c.MinMisses < 0:
		return &ConfigError{Field: "min_misses", Reason: "must not be negative"}
	case c.MinHits+c.MinMisses > c.NumAddr:
		return &ConfigError{Field: "min_hits", Reason: fmt.Sprintf(
			"min_hits (%d) + min_misses (%d) exceeds num_addr (%d)",
			c.MinHits, c.MinMisses, c.NumAddr)}
	}

	if c.NumAddr == 0 {
		return nil
	}

	if c.EffectiveFill() == FillEmpty && c.MinHits > c.NumAddr-1 {
		return &ConfigError{Field: "min_hits", Reason: fmt.Sprintf(
			"an empty cache misses on the first access, "+
				"so at most %d of %d accesses can hit", c.NumAddr-1, c.NumAddr)}
	}

	if uint64(c.Ways) >= uint64(1)<<c.TagBits() {
		return &ConfigError{Field: "ways", Reason: fmt.Sprintf(
			"a set of %d ways can hold all %d tags, so a miss cannot be forced",
			c.Ways, uint64(1)<<c.TagBits())}
	}

	return nil
}
