package trace

import (
	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/hooking"
)

// OutcomeCounter counts the outcomes of the accesses it observes.
type OutcomeCounter struct {
	Hits       int
	Misses     int
	Writebacks int
	Evictions  int
}

// NewOutcomeCounter creates an OutcomeCounter with all counts at zero.
func NewOutcomeCounter() *OutcomeCounter {
	return &OutcomeCounter{}
}

// Func updates the counts.
func (c *OutcomeCounter) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosAccess:
		r := ctx.Item.(cache.AccessRecord)
		if r.Hit {
			c.Hits++
		} else {
			c.Misses++
		}

		if r.Writeback {
			c.Writebacks++
		}
	case hooking.HookPosEvict:
		c.Evictions++
	}
}

// Accesses returns the number of accesses observed.
func (c *OutcomeCounter) Accesses() int {
	return c.Hits + c.Misses
}

// Reset sets all the counts back to zero.
func (c *OutcomeCounter) Reset() {
	*c = OutcomeCounter{}
}
