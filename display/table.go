package display

// SetState is one set of a cache table. Every slice is indexed by way,
// except LRU which lists ways from least to most recently used.
type SetState struct {
	Tags   []string   `json:"tags"`
	Valid  []string   `json:"valid"`
	Dirty  []string   `json:"dirty"`
	Blocks [][]string `json:"blocks"`
	LRU    []string   `json:"lru"`
}

// A CacheTable is the display form of a whole cache.
type CacheTable []SetState

// NewCacheTable creates a table of blank cells.
func NewCacheTable(numSets, numWays, blockSize int) CacheTable {
	t := make(CacheTable, numSets)
	for i := range t {
		t[i] = SetState{
			Tags:   make([]string, numWays),
			Valid:  make([]string, numWays),
			Dirty:  make([]string, numWays),
			Blocks: make([][]string, numWays),
			LRU:    make([]string, numWays),
		}

		for j := range t[i].Blocks {
			t[i].Blocks[j] = make([]string, blockSize)
		}
	}

	return t
}

// AccessEntry is one row of the hit/miss table.
type AccessEntry struct {
	Address   string  `json:"address"`
	Hit       bool    `json:"hit"`
	Data      *string `json:"data"`
	Writeback bool    `json:"writeback"`
}

// Feedback explains how an access address splits into its fields.
type Feedback struct {
	Access int    `json:"access"`
	Tag    string `json:"tag"`
	Index  string `json:"index,omitempty"`
	Offset string `json:"offset"`
}
