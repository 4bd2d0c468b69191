package scenario

import (
	"fmt"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/cache/tagging"
)

func (s *Scenario) run() {
	if s.cfg.Replay() {
		for _, address := range s.cfg.Addresses {
			s.records = append(s.records, s.cache.Access(address))
		}

		return
	}

	lines := newLineIndex(s.initial)

	for i, wantHit := range s.planOutcomes() {
		record := s.cache.Access(s.target(wantHit, lines))
		if record.Hit != wantHit {
			panic(cache.InvariantViolation{What: fmt.Sprintf(
				"access %d at 0x%x: planned hit=%t, simulated hit=%t",
				i, record.Address, wantHit, record.Hit)})
		}

		lines.markValid(lineRef{set: record.SetID, way: record.WayID})
		s.records = append(s.records, record)
	}

	s.mustMeetMinimums()
}

// planOutcomes decides whether each generated access hits. An empty cache
// always misses first, and that miss counts toward the minimum.
func (s *Scenario) planOutcomes() []bool {
	n := s.cfg.NumAddr
	minHits := s.cfg.MinHits
	minMisses := s.cfg.MinMisses

	var plan []bool

	if s.cfg.Fill == FillEmpty && n > 0 {
		plan = append(plan, false)
		n--

		if minMisses > 0 {
			minMisses--
		}
	}

	rest := make([]bool, 0, n)
	for i := 0; i < minHits; i++ {
		rest = append(rest, true)
	}

	for i := 0; i < minMisses; i++ {
		rest = append(rest, false)
	}

	for len(rest) < n {
		rest = append(rest, s.rng.Intn(2) == 0)
	}

	s.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	return append(plan, rest...)
}

type lineRef struct {
	set, way int
}

// lineIndex tracks which lines are valid without rescanning the cache. An
// access only ever turns the line it touched valid, so the index follows
// the access records.
type lineIndex struct {
	valid      []lineRef
	invalid    []lineRef
	invalidPos map[lineRef]int
}

func newLineIndex(sets []tagging.Set) *lineIndex {
	x := &lineIndex{invalidPos: make(map[lineRef]int)}

	for _, set := range sets {
		for _, b := range set.Blocks {
			ref := lineRef{set: b.SetID, way: b.WayID}

			if b.IsValid {
				x.valid = append(x.valid, ref)
				continue
			}

			x.invalidPos[ref] = len(x.invalid)
			x.invalid = append(x.invalid, ref)
		}
	}

	return x
}

func (x *lineIndex) markValid(ref lineRef) {
	pos, ok := x.invalidPos[ref]
	if !ok {
		return
	}

	last := x.invalid[len(x.invalid)-1]
	x.invalid[pos] = last
	x.invalidPos[last] = pos
	x.invalid = x.invalid[:len(x.invalid)-1]
	delete(x.invalidPos, ref)

	x.valid = append(x.valid, ref)
}

// target picks an address that hits or misses in the current cache state.
func (s *Scenario) target(hit bool, lines *lineIndex) uint64 {
	m := s.cache.Mapper()
	offset := uint64(s.rng.Int63n(int64(m.BlockSize())))

	if hit {
		if len(lines.valid) == 0 {
			panic(cache.InvariantViolation{What: "no valid line to hit"})
		}

		ref := lines.valid[s.rng.Intn(len(lines.valid))]

		return m.Compose(cache.Fields{
			Tag:    s.cache.Line(ref.set, ref.way).Tag,
			Index:  uint64(ref.set),
			Offset: offset,
		})
	}

	var setID int

	tag := uint64(0)
	havePlaceholder := false

	if len(lines.invalid) > 0 &&
		(len(lines.valid) == 0 || s.rng.Intn(2) == 0) {
		ref := lines.invalid[s.rng.Intn(len(lines.invalid))]
		setID = ref.set
		tag = s.cache.Line(ref.set, ref.way).Tag
		havePlaceholder = true
	} else {
		setID = lines.valid[s.rng.Intn(len(lines.valid))].set
	}

	resident := s.residentTags(setID)
	if !havePlaceholder || resident[tag] {
		tag = s.pickTag(resident)
	}

	return m.Compose(cache.Fields{
		Tag:    tag,
		Index:  uint64(setID),
		Offset: offset,
	})
}

func (s *Scenario) residentTags(setID int) map[uint64]bool {
	tags := make(map[uint64]bool)

	for way := 0; way < s.cache.NumWays(); way++ {
		b := s.cache.Line(setID, way)
		if b.IsValid {
			tags[b.Tag] = true
		}
	}

	return tags
}

func (s *Scenario) mustMeetMinimums() {
	if s.counter.Hits < s.cfg.MinHits || s.counter.Misses < s.cfg.MinMisses {
		panic(cache.InvariantViolation{What: fmt.Sprintf(
			"trace has %d hits and %d misses, want at least %d and %d",
			s.counter.Hits, s.counter.Misses, s.cfg.MinHits, s.cfg.MinMisses)})
	}
}
