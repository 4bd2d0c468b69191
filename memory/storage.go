// Package memory provides the backing store that cache blocks are loaded
// from.
package memory

import (
	"errors"
	"math/rand"
)

// ErrOutOfRange is returned when an access leaves the storage capacity.
var ErrOutOfRange = errors.New(
	"accessing address beyond the storage capacity")

// A Storage keeps the data of the exercise's main memory.
//
// The storage is byte-addressable and flat. It is filled once, when a
// scenario is generated, and is only read afterwards.
type Storage struct {
	capacity uint64
	data     []byte
}

// NewStorage creates a zeroed storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.capacity = capacity
	storage.data = make([]byte, capacity)

	return storage
}

// Randomize fills every byte of the storage with a random value.
func (s *Storage) Randomize(rng *rand.Rand) {
	for i := range s.data {
		s.data[i] = byte(rng.Intn(256))
	}
}

// Capacity returns the number of bytes the storage holds.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) mustBeInRange(address, length uint64) error {
	if address > s.capacity || length > s.capacity-address {
		return ErrOutOfRange
	}

	return nil
}

// Read returns a copy of length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	if err := s.mustBeInRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	copy(res, s.data[address:address+length])

	return res, nil
}

// Write copies data into the storage starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	if err := s.mustBeInRange(address, uint64(len(data))); err != nil {
		return err
	}

	copy(s.data[address:], data)

	return nil
}

// Bytes returns a copy of the whole storage.
func (s *Storage) Bytes() []byte {
	res := make([]byte, len(s.data))
	copy(res, s.data)

	return res
}
