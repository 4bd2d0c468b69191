package scenario

import (
	"fmt"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/cache/tagging"
)

// Tag spaces up to this size are enumerated when picking a tag. Larger ones
// are sampled.
const enumerateTagLimit = 1024

func (s *Scenario) fill() {
	numSets := s.cache.NumSets()
	numWays := s.cache.NumWays()

	valid := make([][]bool, numSets)
	for set := range valid {
		valid[set] = make([]bool, numWays)

		for way := range valid[set] {
			switch s.cfg.Fill {
			case FillFull:
				valid[set][way] = true
			case FillPartial:
				valid[set][way] = s.rng.Intn(2) == 0
			}
		}
	}

	if s.cfg.Fill == FillPartial && !anyValid(valid) {
		valid[s.rng.Intn(numSets)][s.rng.Intn(numWays)] = true
	}

	for set := 0; set < numSets; set++ {
		used := make(map[uint64]bool)

		for way := 0; way < numWays; way++ {
			if !valid[set][way] {
				s.cache.Fill(s.placeholderLine(set, way))
				continue
			}

			tag := s.pickTag(used)
			used[tag] = true

			s.cache.Fill(s.validLine(set, way, tag, s.randomDirty()))
		}

		s.cache.SetLRUQueue(set, s.rng.Perm(numWays))
	}
}

func anyValid(valid [][]bool) bool {
	for _, set := range valid {
		for _, v := range set {
			if v {
				return true
			}
		}
	}

	return false
}

// Fully populated caches are dirty half of the time. Valid lines of a
// partially populated cache are dirty three times out of four.
func (s *Scenario) randomDirty() bool {
	if s.cfg.Fill == FillPartial {
		return s.rng.Intn(4) != 0
	}

	return s.rng.Intn(2) == 0
}

// validLine creates a line whose data matches memory.
func (s *Scenario) validLine(setID, wayID int, tag uint64, dirty bool) tagging.Block {
	m := s.cache.Mapper()

	data, err := s.memory.Read(m.BlockBase(tag, uint64(setID)), m.BlockSize())
	if err != nil {
		panic(err)
	}

	return tagging.Block{
		Tag:     tag,
		SetID:   setID,
		WayID:   wayID,
		IsValid: true,
		IsDirty: dirty,
		Data:    data,
	}
}

// placeholderLine creates an invalid line with a random tag and random
// data.
func (s *Scenario) placeholderLine(setID, wayID int) tagging.Block {
	m := s.cache.Mapper()

	data := make([]byte, m.BlockSize())
	for i := range data {
		data[i] = byte(s.rng.Intn(256))
	}

	return tagging.Block{
		Tag:   uint64(s.rng.Int63n(int64(m.TagSpace()))),
		SetID: setID,
		WayID: wayID,
		Data:  data,
	}
}

// pickTag returns a uniformly chosen tag that is not excluded.
func (s *Scenario) pickTag(exclude map[uint64]bool) uint64 {
	space := s.cache.Mapper().TagSpace()

	if uint64(len(exclude)) >= space {
		panic(cache.InvariantViolation{What: fmt.Sprintf(
			"all %d tags are excluded", space)})
	}

	if space > enumerateTagLimit {
		for {
			tag := uint64(s.rng.Int63n(int64(space)))
			if !exclude[tag] {
				return tag
			}
		}
	}

	candidates := make([]uint64, 0, space)
	for tag := uint64(0); tag < space; tag++ {
		if !exclude[tag] {
			candidates = append(candidates, tag)
		}
	}

	return candidates[s.rng.Intn(len(candidates))]
}
