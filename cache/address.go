package cache

import (
	"fmt"

	"github.com/sarchlab/cachequiz/cache/tagging"
)

// InvariantViolation is panicked with when the cache model reaches an
// impossible state.
type InvariantViolation = tagging.InvariantViolation

// A ConfigError reports a cache or scenario configuration that cannot be
// built. It is always returned before any state is created.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Fields are the three parts an address decomposes into.
type Fields struct {
	Tag    uint64
	Index  uint64
	Offset uint64
}

// An AddressMapper converts between linear addresses and tag/index/offset
// fields.
type AddressMapper struct {
	AddrBits  int
	SetBits   int
	BlockBits int
}

// NewAddressMapper validates the bit widths and returns a mapper.
func NewAddressMapper(addrBits, setBits, blockBits int) (AddressMapper, error) {
	m := AddressMapper{
		AddrBits:  addrBits,
		SetBits:   setBits,
		BlockBits: blockBits,
	}

	switch {
	case addrBits < 1 || addrBits > 63:
		return m, &ConfigError{"addr_bits", "must be between 1 and 63"}
	case setBits < 0:
		return m, &ConfigError{"set_bits", "must not be negative"}
	case blockBits < 0:
		return m, &ConfigError{"block_bits", "must not be negative"}
	case m.TagBits() <= 0:
		return m, &ConfigError{"addr_bits",
			fmt.Sprintf("no room for a tag: addr_bits (%d) must exceed "+
				"set_bits + block_bits (%d)", addrBits, setBits+blockBits)}
	}

	return m, nil
}

// TagBits returns the width of the tag field.
func (m AddressMapper) TagBits() int {
	return m.AddrBits - m.SetBits - m.BlockBits
}

// NumSets returns the number of sets addressed by the index field.
func (m AddressMapper) NumSets() uint64 { return 1 << m.SetBits }

// BlockSize returns the number of bytes in a block.
func (m AddressMapper) BlockSize() uint64 { return 1 << m.BlockBits }

// TagSpace returns the number of distinct tags.
func (m AddressMapper) TagSpace() uint64 { return 1 << m.TagBits() }

// AddressSpace returns the number of distinct addresses.
func (m AddressMapper) AddressSpace() uint64 { return 1 << m.AddrBits }

// Decompose splits an address into its tag, index and offset.
func (m AddressMapper) Decompose(address uint64) Fields {
	if address >= m.AddressSpace() {
		panic(InvariantViolation{What: fmt.Sprintf(
			"address 0x%x does not fit in %d bits", address, m.AddrBits)})
	}

	blockSize := m.BlockSize()
	numSets := m.NumSets()

	return Fields{
		Tag:    address / blockSize / numSets,
		Index:  address / blockSize % numSets,
		Offset: address % blockSize,
	}
}

// Compose is the inverse of Decompose.
func (m AddressMapper) Compose(f Fields) uint64 {
	if f.Tag >= m.TagSpace() ||
		f.Index >= m.NumSets() ||
		f.Offset >= m.BlockSize() {
		panic(InvariantViolation{What: fmt.Sprintf(
			"fields %+v exceed widths tag=%d set=%d block=%d",
			f, m.TagBits(), m.SetBits, m.BlockBits)})
	}

	return (f.Tag*m.NumSets()+f.Index)*m.BlockSize() + f.Offset
}

// BlockBase returns the address of the first byte of the block identified by
// the tag and the index.
func (m AddressMapper) BlockBase(tag, index uint64) uint64 {
	return m.Compose(Fields{Tag: tag, Index: index})
}
