// Package grading scores learner submissions against the ground truth of a
// scenario.
package grading

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/cachequiz/display"
)

// ErrBlank is reported for a blank submission where a value is required.
var ErrBlank = errors.New("must not be blank")

type cellKind int

const (
	kindTag cellKind = iota
	kindBit
	kindData
	kindWay
)

func (k cellKind) String() string {
	switch k {
	case kindTag:
		return "tag"
	case kindBit:
		return "bit"
	case kindData:
		return "data"
	default:
		return "way"
	}
}

// A cell is a parsed table value. Blank cells are equal only to blank cells.
type cell struct {
	blank bool
	value uint64
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func parseCell(kind cellKind, s string, base display.Base) (cell, error) {
	s = normalize(s)
	if s == "" {
		return cell{blank: true}, nil
	}

	var (
		v   uint64
		err error
	)

	switch kind {
	case kindTag:
		v, err = parseTag(s, base)
	case kindBit:
		v, err = strconv.ParseUint(s, 2, 1)
	case kindData:
		if digits, ok := strings.CutPrefix(s, "0x"); ok {
			v, err = strconv.ParseUint(digits, 16, 8)
		} else {
			v, err = strconv.ParseUint(s, 10, 8)
		}
	case kindWay:
		v, err = strconv.ParseUint(s, 10, 32)
	}

	if err != nil {
		return cell{}, fmt.Errorf("%q is not a valid %s", s, kind)
	}

	return cell{value: v}, nil
}

func parseTag(s string, base display.Base) (uint64, error) {
	if base == display.Bin {
		return strconv.ParseUint(strings.TrimPrefix(s, "0b"), 2, 64)
	}

	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

// ParseTag parses a tag written in the given base. The 0x or 0b prefix is
// optional and spaces are ignored. It returns false for a blank cell.
func ParseTag(s string, base display.Base) (uint64, bool, error) {
	c, err := parseCell(kindTag, s, base)
	return c.value, !c.blank, err
}

// ParseData parses a data byte written in decimal or in 0x-prefixed
// hexadecimal. It returns false for a blank cell.
func ParseData(s string) (byte, bool, error) {
	c, err := parseCell(kindData, s, display.Hex)
	return byte(c.value), !c.blank, err
}
