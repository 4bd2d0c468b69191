package grading

import (
	"fmt"
	"strings"
)

// CacheMode selects how a cache table is scored.
type CacheMode int

// The cache table grading modes.
const (
	CacheModeBlocks CacheMode = iota
	CacheModeCells
	CacheModeAllOrNothing
)

var cacheModeNames = map[CacheMode]string{
	CacheModeBlocks:       "blocks",
	CacheModeCells:        "cells",
	CacheModeAllOrNothing: "all-or-nothing",
}

// ParseCacheMode parses "blocks", "cells" or "all-or-nothing".
func ParseCacheMode(s string) (CacheMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range cacheModeNames {
		if name == s {
			return m, nil
		}
	}

	return CacheModeBlocks, fmt.Errorf("unknown cache grade mode %q", s)
}

func (m CacheMode) String() string {
	if name, ok := cacheModeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("CacheMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m CacheMode) MarshalText() ([]byte, error) {
	if _, ok := cacheModeNames[m]; !ok {
		return nil, fmt.Errorf("unknown cache grade mode %d", int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CacheMode) UnmarshalText(text []byte) error {
	parsed, err := ParseCacheMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// AccessMode selects how an access table is scored.
type AccessMode int

// The access table grading modes.
const (
	AccessModeThroughFirst AccessMode = iota
	AccessModeAll
	AccessModeAllOrNothing
)

var accessModeNames = map[AccessMode]string{
	AccessModeThroughFirst: "through-first",
	AccessModeAll:          "all",
	AccessModeAllOrNothing: "all-or-nothing",
}

// ParseAccessMode parses "through-first", "all" or "all-or-nothing".
func ParseAccessMode(s string) (AccessMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range accessModeNames {
		if name == s {
			return m, nil
		}
	}

	return AccessModeThroughFirst, fmt.Errorf("unknown access grade mode %q", s)
}

func (m AccessMode) String() string {
	if name, ok := accessModeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("AccessMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m AccessMode) MarshalText() ([]byte, error) {
	if _, ok := accessModeNames[m]; !ok {
		return nil, fmt.Errorf("unknown access grade mode %d", int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AccessMode) UnmarshalText(text []byte) error {
	parsed, err := ParseAccessMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}
