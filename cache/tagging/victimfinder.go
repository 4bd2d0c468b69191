package tagging

// A VictimFinder decides which block should be evicted.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the least recently used block in a set. Invalid blocks
// get no priority; they are replaced only when they reach the LRU position.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	if len(set.LRUQueue) == 0 {
		violate("cannot find a victim in a set without ways")
	}

	return set.Blocks[set.LRUQueue[0]]
}
