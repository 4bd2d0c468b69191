// Package tagging keeps the state of a set-associative cache: tags, status
// bits, block data and the LRU order of every set.
package tagging

import "fmt"

// InvariantViolation is the value panicked with when the cache state is
// found to be inconsistent. It signals a programming error.
type InvariantViolation struct {
	What string
}

func (e InvariantViolation) Error() string {
	return "cache invariant violated: " + e.What
}

func violate(format string, args ...any) {
	panic(InvariantViolation{What: fmt.Sprintf(format, args...)})
}

// A TagArray holds every line of the cache.
type TagArray interface {
	Lookup(setID int, tag uint64) (Block, bool)
	Update(block Block)
	Visit(block Block)
	GetSet(setID int) *Set
	SetLRUQueue(setID int, queue []int)
	NumSets() int
	NumWays() int
	BlockSize() int
	TotalSize() uint64
	Snapshot() []Set
	Reset()
}

// NewTagArray creates a tag array with every line invalid.
func NewTagArray(
	numSets int,
	numWays int,
	blockSize int,
) TagArray {
	t := &tagArrayImpl{
		numSets:   numSets,
		numWays:   numWays,
		blockSize: blockSize,
		Sets:      []Set{},
	}

	t.Reset()

	return t
}

// A Block of a cache is the information that is associated with a cache line
type Block struct {
	Tag     uint64
	WayID   int
	SetID   int
	IsValid bool
	IsDirty bool
	Data    []byte
}

// Clone returns a copy of the block that does not share its data.
func (b Block) Clone() Block {
	c := b
	c.Data = append([]byte(nil), b.Data...)

	return c
}

// A Set is a list of blocks where a certain piece memory can be stored at.
// LRUQueue lists way IDs from the least recently used to the most recently
// used.
type Set struct {
	Blocks   []Block
	LRUQueue []int
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	c := Set{
		Blocks:   make([]Block, len(s.Blocks)),
		LRUQueue: append([]int(nil), s.LRUQueue...),
	}

	for i, b := range s.Blocks {
		c.Blocks[i] = b.Clone()
	}

	return c
}

type tagArrayImpl struct {
	numSets   int
	numWays   int
	blockSize int
	Sets      []Set
}

func (d *tagArrayImpl) NumSets() int   { return d.numSets }
func (d *tagArrayImpl) NumWays() int   { return d.numWays }
func (d *tagArrayImpl) BlockSize() int { return d.blockSize }

// TotalSize returns the maximum number of bytes can be stored in the cache
func (d *tagArrayImpl) TotalSize() uint64 {
	return uint64(d.numSets) * uint64(d.numWays) * uint64(d.blockSize)
}

// GetSet returns the set with the given ID.
func (d *tagArrayImpl) GetSet(setID int) *Set {
	if setID < 0 || setID >= d.numSets {
		violate("set %d out of range [0, %d)", setID, d.numSets)
	}

	return &d.Sets[setID]
}

// Lookup finds the valid block in the set that holds the tag.
func (d *tagArrayImpl) Lookup(setID int, tag uint64) (Block, bool) {
	set := d.GetSet(setID)
	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Update updates the block information
func (d *tagArrayImpl) Update(block Block) {
	set := d.GetSet(block.SetID)
	if block.WayID < 0 || block.WayID >= d.numWays {
		violate("way %d out of range [0, %d)", block.WayID, d.numWays)
	}

	if len(block.Data) != d.blockSize {
		violate("block holds %d bytes, want %d", len(block.Data), d.blockSize)
	}

	set.Blocks[block.WayID] = block.Clone()
}

// Visit moves the block to the end of the LRUQueue
func (d *tagArrayImpl) Visit(block Block) {
	set := d.GetSet(block.SetID)
	newLRUQueue := make([]int, 0, d.numWays)

	for _, b := range set.LRUQueue {
		if b != block.WayID {
			newLRUQueue = append(newLRUQueue, b)
		}
	}

	newLRUQueue = append(newLRUQueue, block.WayID)

	mustBePermutation(newLRUQueue, d.numWays)
	set.LRUQueue = newLRUQueue
}

// SetLRUQueue replaces the LRU order of a set.
func (d *tagArrayImpl) SetLRUQueue(setID int, queue []int) {
	mustBePermutation(queue, d.numWays)
	d.GetSet(setID).LRUQueue = append([]int(nil), queue...)
}

// Snapshot returns a deep copy of all the sets.
func (d *tagArrayImpl) Snapshot() []Set {
	sets := make([]Set, len(d.Sets))
	for i, s := range d.Sets {
		sets[i] = s.Clone()
	}

	return sets
}

// Reset will mark all the blocks in the directory invalid
func (d *tagArrayImpl) Reset() {
	d.Sets = make([]Set, d.numSets)
	for i := 0; i < d.numSets; i++ {
		for j := 0; j < d.numWays; j++ {
			block := Block{
				IsValid: false,
				SetID:   i,
				WayID:   j,
				Data:    make([]byte, d.blockSize),
			}

			d.Sets[i].Blocks = append(d.Sets[i].Blocks, block)
			d.Sets[i].LRUQueue = append(d.Sets[i].LRUQueue, j)
		}
	}
}

func mustBePermutation(queue []int, numWays int) {
	if len(queue) != numWays {
		violate("LRU queue %v has %d entries, want %d",
			queue, len(queue), numWays)
	}

	seen := make([]bool, numWays)
	for _, w := range queue {
		if w < 0 || w >= numWays || seen[w] {
			violate("LRU queue %v is not a permutation of ways", queue)
		}

		seen[w] = true
	}
}
