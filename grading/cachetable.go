package grading

import (
	"fmt"

	"github.com/sarchlab/cachequiz/display"
)

// Wrong unchanged blocks or cells cost this much of the partial score.
const unchangedPenalty = 0.5

// TagKey names the tag cell of a line.
func TagKey(set, way int) string { return fmt.Sprintf("tag%d_%d", set, way) }

// ValidKey names the valid-bit cell of a line.
func ValidKey(set, way int) string { return fmt.Sprintf("valid%d_%d", set, way) }

// DirtyKey names the dirty-bit cell of a line.
func DirtyKey(set, way int) string { return fmt.Sprintf("dirty%d_%d", set, way) }

// DataKey names the cell holding byte k of a line.
func DataKey(set, way, k int) string { return fmt.Sprintf("data%d_%d_%d", set, way, k) }

// LRUKey names the LRU cell at a queue position, least recent first.
func LRUKey(set, position int) string { return fmt.Sprintf("lru%d_%d", set, position) }

// BlockKey names the block made of every cell of a line.
func BlockKey(set, way int) string { return fmt.Sprintf("block%d_%d", set, way) }

// LRUBlockKey names the block made of the LRU cells of a set.
func LRUBlockKey(set int) string { return fmt.Sprintf("lru_block%d", set) }

// CacheOptions controls which cells of a cache table are graded and how.
type CacheOptions struct {
	Mode      CacheMode    `json:"mode"`
	Base      display.Base `json:"base"`
	ShowValid bool         `json:"show_valid"`
	ShowDirty bool         `json:"show_dirty"`
	ShowData  bool         `json:"show_data"`
	Weight    int          `json:"weight"`
}

// CacheGrade is the outcome of grading a cache table.
type CacheGrade struct {
	Score        float64           `json:"score"`
	Weight       int               `json:"weight"`
	Cells        map[string]bool   `json:"cells"`
	Blocks       map[string]bool   `json:"blocks"`
	FormatErrors map[string]string `json:"format_errors,omitempty"`
}

type tally struct {
	total          int
	changed        int
	changedCorrect int
	sameCorrect    int
}

func (t *tally) add(changed, correct bool) {
	t.total++

	if changed {
		t.changed++
	}

	switch {
	case correct && changed:
		t.changedCorrect++
	case correct:
		t.sameCorrect++
	}
}

func (t tally) allCorrect() bool {
	return t.changedCorrect+t.sameCorrect == t.total
}

// partial scores the changed units and takes the penalty if any unchanged
// unit is wrong.
func (t tally) partial() float64 {
	score := float64(t.changedCorrect) / float64(t.changed)
	if t.sameCorrect < t.total-t.changed {
		score = max(score-unchangedPenalty, 0)
	}

	return score
}

type cacheGrader struct {
	opts      CacheOptions
	submitted map[string]string
	grade     CacheGrade
	cells     tally
	blocks    tally
	err       error
}

// GradeCacheTable compares a submitted final cache table with the expected
// one. Submitted values are keyed by the names produced by TagKey, DataKey
// and the like. A missing key counts as a blank cell.
func GradeCacheTable(
	initial, final display.CacheTable,
	submitted map[string]string,
	opts CacheOptions,
) (CacheGrade, error) {
	if err := sameShape(initial, final); err != nil {
		return CacheGrade{}, err
	}

	g := &cacheGrader{
		opts:      opts,
		submitted: submitted,
		grade: CacheGrade{
			Weight:       opts.Weight,
			Cells:        make(map[string]bool),
			Blocks:       make(map[string]bool),
			FormatErrors: make(map[string]string),
		},
	}

	for i := range final {
		g.gradeSet(i, initial[i], final[i])
	}

	if g.err != nil {
		return CacheGrade{}, g.err
	}

	g.grade.Score = g.score()

	return g.grade, nil
}

func (g *cacheGrader) score() float64 {
	if g.cells.changed == 0 || g.opts.Mode == CacheModeAllOrNothing {
		if g.cells.allCorrect() {
			return 1
		}

		return 0
	}

	if g.opts.Mode == CacheModeBlocks {
		return g.blocks.partial()
	}

	return g.cells.partial()
}

func (g *cacheGrader) gradeSet(i int, initial, final display.SetState) {
	numWays := len(final.Tags)

	for j := 0; j < numWays; j++ {
		changed, correct := g.gradeBlock(i, j, initial, final)

		g.grade.Blocks[BlockKey(i, j)] = correct
		g.blocks.add(changed, correct)
	}

	if numWays <= 1 {
		return
	}

	changed, correct := false, true

	for j := 0; j < numWays; j++ {
		c, ok := g.gradeCell(LRUKey(i, j), kindWay, initial.LRU[j], final.LRU[j])
		changed = changed || c
		correct = correct && ok
	}

	g.grade.Blocks[LRUBlockKey(i)] = correct
	g.blocks.add(changed, correct)
}

func (g *cacheGrader) gradeBlock(
	i, j int,
	initial, final display.SetState,
) (changed, correct bool) {
	correct = true

	check := func(key string, kind cellKind, before, after string) {
		c, ok := g.gradeCell(key, kind, before, after)
		changed = changed || c
		correct = correct && ok
	}

	check(TagKey(i, j), kindTag, initial.Tags[j], final.Tags[j])

	if g.opts.ShowValid {
		check(ValidKey(i, j), kindBit, initial.Valid[j], final.Valid[j])
	}

	if g.opts.ShowDirty {
		check(DirtyKey(i, j), kindBit, initial.Dirty[j], final.Dirty[j])
	}

	if g.opts.ShowData {
		for k := range final.Blocks[j] {
			check(DataKey(i, j, k), kindData,
				initial.Blocks[j][k], final.Blocks[j][k])
		}
	}

	return changed, correct
}

func (g *cacheGrader) gradeCell(
	key string,
	kind cellKind,
	initial, final string,
) (changed, correct bool) {
	before, err := parseCell(kind, initial, g.opts.Base)
	if err != nil {
		g.setErr(fmt.Errorf("initial %s: %w", key, err))
		return false, false
	}

	after, err := parseCell(kind, final, g.opts.Base)
	if err != nil {
		g.setErr(fmt.Errorf("expected %s: %w", key, err))
		return false, false
	}

	changed = before != after

	sub, err := parseCell(kind, g.submitted[key], g.opts.Base)

	switch {
	case err != nil:
		g.grade.FormatErrors[key] = err.Error()
	case sub.blank && !before.blank:
		g.grade.FormatErrors[key] = ErrBlank.Error()
	default:
		correct = sub == after
	}

	g.grade.Cells[key] = correct
	g.cells.add(changed, correct)

	return changed, correct
}

func (g *cacheGrader) setErr(err error) {
	if g.err == nil {
		g.err = err
	}
}

func sameShape(initial, final display.CacheTable) error {
	if len(initial) != len(final) {
		return fmt.Errorf("initial table has %d sets, final table has %d",
			len(initial), len(final))
	}

	for i := range final {
		a, b := initial[i], final[i]
		ways := len(b.Tags)

		if len(a.Tags) != ways || len(a.Valid) != ways || len(b.Valid) != ways ||
			len(a.Dirty) != ways || len(b.Dirty) != ways ||
			len(a.Blocks) != ways || len(b.Blocks) != ways ||
			len(a.LRU) != ways || len(b.LRU) != ways {
			return fmt.Errorf("set %d: tables do not have %d ways", i, ways)
		}

		for j := range b.Blocks {
			if len(a.Blocks[j]) != len(b.Blocks[j]) {
				return fmt.Errorf("set %d way %d: block sizes differ", i, j)
			}
		}
	}

	return nil
}
