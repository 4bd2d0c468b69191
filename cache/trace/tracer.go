// Package trace provides hooks that observe the accesses of a simulated
// cache.
package trace

import (
	"log"

	"github.com/sarchlab/cachequiz/cache"
	"github.com/sarchlab/cachequiz/cache/tagging"
	"github.com/sarchlab/cachequiz/datarecording"
	"github.com/sarchlab/cachequiz/hooking"
)

// AccessTable and EvictionTable are the tables written by the DBTracer.
const (
	AccessTable   = "cache_accesses"
	EvictionTable = "cache_evictions"
)

// AccessEntry is a row of the access table. Data is -1 when the access
// missed.
type AccessEntry struct {
	ScenarioID string
	Seq        int
	Address    uint64
	Tag        uint64
	SetIndex   uint64
	Offset     uint64
	Hit        bool
	Data       int
	Writeback  bool
	WayID      int
}

// EvictionEntry is a row of the eviction table.
type EvictionEntry struct {
	ScenarioID string
	Seq        int
	SetID      int
	WayID      int
	Tag        uint64
	Dirty      bool
}

func domainName(ctx hooking.HookCtx) string {
	named, ok := ctx.Domain.(hooking.Named)
	if !ok {
		return ""
	}

	return named.Name()
}

// A LogTracer prints one line per access and per eviction.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a tracer that writes to the logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func writes the event carried by the hook context.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosAccess:
		r := ctx.Item.(cache.AccessRecord)
		t.logger.Printf("access, %s, %d, 0x%x, %s, set %d, way %d\n",
			domainName(ctx), r.Seq, r.Address, outcome(r), r.SetID, r.WayID)
	case hooking.HookPosEvict:
		b := ctx.Item.(tagging.Block)
		r := ctx.Detail.(cache.AccessRecord)
		t.logger.Printf("evict, %s, %d, set %d, way %d, tag 0x%x, dirty %t\n",
			domainName(ctx), r.Seq, b.SetID, b.WayID, b.Tag, b.IsDirty)
	}
}

func outcome(r cache.AccessRecord) string {
	switch {
	case r.Hit:
		return "hit"
	case r.Writeback:
		return "miss+writeback"
	default:
		return "miss"
	}
}

// A DBTracer records accesses and evictions through a DataRecorder.
type DBTracer struct {
	recorder datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(recorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{recorder: recorder}

	recorder.CreateTable(AccessTable, AccessEntry{})
	recorder.CreateTable(EvictionTable, EvictionEntry{})

	return t
}

// Func inserts one row for the event carried by the hook context.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosAccess:
		r := ctx.Item.(cache.AccessRecord)

		data := -1
		if r.HasData {
			data = int(r.Data)
		}

		t.recorder.InsertData(AccessTable, AccessEntry{
			ScenarioID: domainName(ctx),
			Seq:        r.Seq,
			Address:    r.Address,
			Tag:        r.Tag,
			SetIndex:   r.Index,
			Offset:     r.Offset,
			Hit:        r.Hit,
			Data:       data,
			Writeback:  r.Writeback,
			WayID:      r.WayID,
		})
	case hooking.HookPosEvict:
		b := ctx.Item.(tagging.Block)
		r := ctx.Detail.(cache.AccessRecord)

		t.recorder.InsertData(EvictionTable, EvictionEntry{
			ScenarioID: domainName(ctx),
			Seq:        r.Seq,
			SetID:      b.SetID,
			WayID:      b.WayID,
			Tag:        b.Tag,
			Dirty:      b.IsDirty,
		})
	}
}
