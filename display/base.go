// Package display turns typed cache values into the strings shown to
// learners. Formatting happens only here, at the export boundary.
package display

import (
	"fmt"
	"strings"

	"github.com/sarchlab/cachequiz/cache"
)

// Base selects how tags and addresses are written.
type Base int

// The supported bases.
const (
	Hex Base = iota
	Bin
)

// ParseBase parses "hex" or "bin", ignoring case and surrounding spaces. Any
// other selector is a *cache.ConfigError on the base field.
func ParseBase(s string) (Base, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex":
		return Hex, nil
	case "bin":
		return Bin, nil
	default:
		return Hex, &cache.ConfigError{Field: "base",
			Reason: fmt.Sprintf("must be hex or bin, got %q", s)}
	}
}

func (b Base) String() string {
	switch b {
	case Hex:
		return "hex"
	case Bin:
		return "bin"
	default:
		return fmt.Sprintf("Base(%d)", int(b))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Base) MarshalText() ([]byte, error) {
	if b != Hex && b != Bin {
		return nil, fmt.Errorf("unknown base %d", int(b))
	}

	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Base) UnmarshalText(text []byte) error {
	parsed, err := ParseBase(string(text))
	if err != nil {
		return err
	}

	*b = parsed

	return nil
}
