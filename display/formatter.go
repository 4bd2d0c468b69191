package display

import (
	"fmt"
	"strconv"
	"strings"
)

// A Formatter writes the fields of one cache geometry in one base.
type Formatter struct {
	Base      Base
	AddrBits  int
	SetBits   int
	BlockBits int
}

// TagBits returns the width of the tag field.
func (f Formatter) TagBits() int {
	return f.AddrBits - f.SetBits - f.BlockBits
}

func hexDigits(bits int) int {
	return (bits + 3) / 4
}

// Address formats an address, zero-padded to the address width. Binary
// addresses are grouped in nibbles counted from the least significant bit.
func (f Formatter) Address(address uint64) string {
	if f.Base == Hex {
		return fmt.Sprintf("0x%0*x", hexDigits(f.AddrBits), address)
	}

	return "0b" + groupNibbles(fmt.Sprintf("%0*b", f.AddrBits, address))
}

func groupNibbles(digits string) string {
	var groups []string

	for end := len(digits); end > 0; end -= 4 {
		start := max(end-4, 0)
		groups = append([]string{digits[start:end]}, groups...)
	}

	return strings.Join(groups, " ")
}

// Tag formats a tag, zero-padded to the tag width.
func (f Formatter) Tag(tag uint64) string {
	if f.Base == Hex {
		return fmt.Sprintf("0x%0*x", hexDigits(f.TagBits()), tag)
	}

	return fmt.Sprintf("%0*b", f.TagBits(), tag)
}

// Index formats a set index as used in table headers.
func (f Formatter) Index(index uint64) string {
	if f.Base == Hex {
		return strconv.FormatUint(index, 16)
	}

	return fmt.Sprintf("%0*b", f.SetBits, index)
}

// Offset formats a block offset as used in table headers.
func (f Formatter) Offset(offset uint64) string {
	if f.Base == Hex {
		return strconv.FormatUint(offset, 16)
	}

	return fmt.Sprintf("%0*b", f.BlockBits, offset)
}

// Byte formats a data byte. Data is always shown in decimal.
func Byte(v byte) string {
	return strconv.Itoa(int(v))
}

// Bit formats a status bit as "0" or "1".
func Bit(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

// Way formats a way number in an LRU list.
func Way(w int) string {
	return strconv.Itoa(w)
}
