package scenario

import (
	"fmt"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/cache/tagging"
	"github.com/sarchlab/cachequiz/display"
)

// Params echoes the configuration in the form a renderer needs.
type Params struct {
	Ways      int            `json:"ways"`
	NumSets   int            `json:"num_sets"`
	BlockSize int            `json:"block_size"`
	AddrBits  int            `json:"addr_bits"`
	SetBits   int            `json:"set_bits"`
	BlockBits int            `json:"block_bits"`
	TagBits   int            `json:"tag_bits"`
	Base      display.Base   `json:"base"`
	ShowValid bool           `json:"show_valid"`
	ShowDirty bool           `json:"show_dirty"`
	Fill      FillPolicy     `json:"fill"`
	Seed      int64          `json:"seed"`
	Indexes   []string       `json:"indexes"`
	Offsets   []string       `json:"offsets"`
	Outcomes  map[string]int `json:"outcomes"`
}

// Result is the ground truth of a scenario in display form.
type Result struct {
	ID       string                `json:"id"`
	Params   Params                `json:"params"`
	Initial  display.CacheTable    `json:"initial"`
	Final    display.CacheTable    `json:"final"`
	Memory   []int                 `json:"memory"`
	Accesses []display.AccessEntry `json:"accesses"`
	Feedback []display.Feedback    `json:"tio_sequence"`
}

// Formatter returns the formatter for the scenario's geometry and base.
func (s *Scenario) Formatter() display.Formatter {
	return display.Formatter{
		Base:      s.cfg.Base,
		AddrBits:  s.cfg.AddrBits,
		SetBits:   s.cfg.SetBits,
		BlockBits: s.cfg.BlockBits,
	}
}

// Export renders the scenario for renderers and graders.
func (s *Scenario) Export() Result {
	f := s.Formatter()

	r := Result{
		ID:       s.id,
		Params:   s.params(f),
		Initial:  s.cacheTable(f, s.initial),
		Final:    s.cacheTable(f, s.cache.Sets()),
		Memory:   make([]int, 0, s.memory.Capacity()),
		Accesses: make([]display.AccessEntry, 0, len(s.records)),
		Feedback: make([]display.Feedback, 0, len(s.records)),
	}

	for _, b := range s.memory.Bytes() {
		r.Memory = append(r.Memory, int(b))
	}

	for _, record := range s.records {
		r.Accesses = append(r.Accesses, accessEntry(f, record))
		r.Feedback = append(r.Feedback, s.feedback(f, record))
	}

	return r
}

func (s *Scenario) params(f display.Formatter) Params {
	m := s.cache.Mapper()

	p := Params{
		Ways:      s.cfg.Ways,
		NumSets:   int(m.NumSets()),
		BlockSize: int(m.BlockSize()),
		AddrBits:  s.cfg.AddrBits,
		SetBits:   s.cfg.SetBits,
		BlockBits: s.cfg.BlockBits,
		TagBits:   m.TagBits(),
		Base:      s.cfg.Base,
		ShowValid: s.cfg.ShowValid,
		ShowDirty: s.cfg.ShowDirty,
		Fill:      s.cfg.Fill,
		Seed:      s.cfg.Seed,
		Outcomes: map[string]int{
			"hits":       s.counter.Hits,
			"misses":     s.counter.Misses,
			"writebacks": s.counter.Writebacks,
			"evictions":  s.counter.Evictions,
		},
	}

	for i := uint64(0); i < m.NumSets(); i++ {
		p.Indexes = append(p.Indexes, f.Index(i))
	}

	for i := uint64(0); i < m.BlockSize(); i++ {
		p.Offsets = append(p.Offsets, f.Offset(i))
	}

	return p
}

// cacheTable renders sets. Invalid lines are blank when the learner cannot
// see valid bits.
func (s *Scenario) cacheTable(f display.Formatter, sets []tagging.Set) display.CacheTable {
	t := display.NewCacheTable(len(sets), s.cfg.Ways, int(s.cache.Mapper().BlockSize()))

	for i, set := range sets {
		for j, b := range set.Blocks {
			if !b.IsValid && !s.cfg.ShowValid {
				continue
			}

			t[i].Tags[j] = f.Tag(b.Tag)
			t[i].Valid[j] = display.Bit(b.IsValid)
			t[i].Dirty[j] = display.Bit(b.IsDirty)

			for k, v := range b.Data {
				t[i].Blocks[j][k] = display.Byte(v)
			}
		}

		for k, way := range set.LRUQueue {
			t[i].LRU[k] = display.Way(way)
		}
	}

	return t
}

func accessEntry(f display.Formatter, r cache.AccessRecord) display.AccessEntry {
	e := display.AccessEntry{
		Address:   f.Address(r.Address),
		Hit:       r.Hit,
		Writeback: r.Writeback,
	}

	if r.HasData {
		data := display.Byte(r.Data)
		e.Data = &data
	}

	return e
}

// feedback explains how the address of an access splits into its fields.
func (s *Scenario) feedback(f display.Formatter, r cache.AccessRecord) display.Feedback {
	m := s.cache.Mapper()
	fb := display.Feedback{Access: r.Seq}
	oneSet := m.NumSets() == 1

	if f.Base == display.Bin {
		fb.Tag = fmt.Sprintf("Tag = %0*b", m.TagBits(), r.Tag)
		fb.Offset = fmt.Sprintf("Offset = %0*b", m.BlockBits, r.Offset)

		if !oneSet {
			fb.Index = fmt.Sprintf("Index = %0*b", m.SetBits, r.Index)
		}

		return fb
	}

	addr := "<code>" + f.Address(r.Address) + "</code>"
	bs := m.BlockSize()

	fb.Offset = fmt.Sprintf("%s %% %d = 0x%x", addr, bs, r.Offset)

	if oneSet {
		fb.Tag = fmt.Sprintf("%s / %d = 0x%x", addr, bs, r.Tag)
		return fb
	}

	fb.Tag = fmt.Sprintf("%s / %d / %d = 0x%x", addr, bs, m.NumSets(), r.Tag)
	fb.Index = fmt.Sprintf("%s / %d %% %d = 0x%x", addr, bs, m.NumSets(), r.Index)

	return fb
}
