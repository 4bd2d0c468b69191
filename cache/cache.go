// Package cache simulates a single-level, set-associative, write-back cache
// with a pluggable replacement policy.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachequiz/cache/tagging"
	"github.com/sarchlab/cachequiz/hooking"
)

// A BackingStore is the memory that blocks are loaded from on a miss.
type BackingStore interface {
	Read(address uint64, length uint64) ([]byte, error)
}

// An AccessRecord describes one simulated access.
type AccessRecord struct {
	Seq     int
	Address uint64
	Fields

	Hit bool

	// Data is the byte returned by a hit. HasData is false on a miss.
	Data    byte
	HasData bool

	Writeback bool

	// SetID and WayID locate the line that served the access.
	SetID int
	WayID int
}

// Cache is the simulated cache. Every access mutates the cache in place.
type Cache struct {
	hooking.HookableBase

	name         string
	mapper       AddressMapper
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
	backing      BackingStore
	numAccesses  int
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Mapper returns the address mapper of the cache.
func (c *Cache) Mapper() AddressMapper {
	return c.mapper
}

// NumWays returns the associativity of the cache.
func (c *Cache) NumWays() int {
	return c.tags.NumWays()
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.tags.NumSets()
}

// TotalSize returns the number of data bytes the cache can hold.
func (c *Cache) TotalSize() uint64 {
	return c.tags.TotalSize()
}

// Line returns a copy of one line.
func (c *Cache) Line(setID, wayID int) tagging.Block {
	return c.tags.GetSet(setID).Blocks[wayID].Clone()
}

// Sets returns a deep copy of every set.
func (c *Cache) Sets() []tagging.Set {
	return c.tags.Snapshot()
}

// LRUQueue returns a copy of the LRU order of a set.
func (c *Cache) LRUQueue(setID int) []int {
	return append([]int(nil), c.tags.GetSet(setID).LRUQueue...)
}

// Fill overwrites one line. It is meant for setting up the initial state.
func (c *Cache) Fill(block tagging.Block) {
	c.tags.Update(block)
}

// SetLRUQueue overwrites the LRU order of a set.
func (c *Cache) SetLRUQueue(setID int, queue []int) {
	c.tags.SetLRUQueue(setID, queue)
}

// Access simulates a read of one byte at the address.
func (c *Cache) Access(address uint64) AccessRecord {
	fields := c.mapper.Decompose(address)
	setID := int(fields.Index)

	record := AccessRecord{
		Seq:     c.numAccesses,
		Address: address,
		Fields:  fields,
		SetID:   setID,
	}
	c.numAccesses++

	block, hit := c.tags.Lookup(setID, fields.Tag)
	if hit {
		c.tags.Visit(block)

		record.Hit = true
		record.WayID = block.WayID
		record.Data = block.Data[fields.Offset]
		record.HasData = true

		c.invokeAccessHook(record)

		return record
	}

	victim := c.victimFinder.FindVictim(c.tags.GetSet(setID))
	record.WayID = victim.WayID
	record.Writeback = victim.IsValid && victim.IsDirty

	if victim.IsValid {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    hooking.HookPosEvict,
			Item:   victim.Clone(),
			Detail: record,
		})
	}

	c.refill(victim, fields)
	c.invokeAccessHook(record)

	return record
}

func (c *Cache) refill(victim tagging.Block, fields Fields) {
	base := c.mapper.BlockBase(fields.Tag, fields.Index)

	data, err := c.backing.Read(base, c.mapper.BlockSize())
	if err != nil {
		panic(InvariantViolation{What: fmt.Sprintf(
			"cannot load block 0x%x from backing store: %v", base, err)})
	}

	block := tagging.Block{
		Tag:     fields.Tag,
		SetID:   victim.SetID,
		WayID:   victim.WayID,
		IsValid: true,
		IsDirty: false,
		Data:    data,
	}

	c.tags.Update(block)
	c.tags.Visit(block)
}

func (c *Cache) invokeAccessHook(record AccessRecord) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosAccess,
		Item:   record,
	})
}
