package cache

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/cachequiz/cache/tagging"
	"github.com/sarchlab/cachequiz/hooking"
	"github.com/sarchlab/cachequiz/memory"
)

func countingStorage(capacity uint64) *memory.Storage {
	storage := memory.NewStorage(capacity)

	data := make([]byte, capacity)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}

	Expect(storage.Write(0, data)).To(Succeed())

	return storage
}

func buildCache(
	storage *memory.Storage,
	ways, addrBits, setBits, blockBits int,
) *Cache {
	mapper, err := NewAddressMapper(addrBits, setBits, blockBits)
	Expect(err).NotTo(HaveOccurred())

	return MakeBuilder().
		WithWayAssociativity(ways).
		WithMapper(mapper).
		WithBackingStore(storage).
		Build("Cache")
}

var _ = Describe("Cache", func() {
	var (
		storage *memory.Storage
	)

	BeforeEach(func() {
		storage = countingStorage(64)
	})

	Context("direct-mapped with a single byte block", func() {
		var c *Cache

		BeforeEach(func() {
			c = buildCache(storage, 1, 4, 0, 0)
		})

		It("should miss on cold cache and hit when repeated", func() {
			first := c.Access(0x9)
			Expect(first.Hit).To(BeFalse())
			Expect(first.HasData).To(BeFalse())
			Expect(first.Writeback).To(BeFalse())

			second := c.Access(0x9)
			Expect(second.Hit).To(BeTrue())
			Expect(second.HasData).To(BeTrue())
			Expect(second.Data).To(Equal(byte(9*7 + 3)))
			Expect(second.Seq).To(Equal(1))
		})
	})

	Context("write-back", func() {
		var c *Cache

		BeforeEach(func() {
			c = buildCache(storage, 1, 4, 0, 1)
		})

		It("should write back a dirty victim", func() {
			c.Fill(tagging.Block{
				Tag:     2,
				IsValid: true,
				IsDirty: true,
				Data:    []byte{100, 101},
			})

			record := c.Access(0xB)

			Expect(record.Hit).To(BeFalse())
			Expect(record.Writeback).To(BeTrue())
			Expect(record.Fields).To(Equal(Fields{Tag: 5, Offset: 1}))

			line := c.Line(0, 0)
			Expect(line.Tag).To(Equal(uint64(5)))
			Expect(line.IsValid).To(BeTrue())
			Expect(line.IsDirty).To(BeFalse())
			Expect(line.Data).To(Equal([]byte{10*7 + 3, 11*7 + 3}))
		})

		It("should not write back a clean victim", func() {
			c.Fill(tagging.Block{Tag: 2, IsValid: true, Data: []byte{0, 0}})

			record := c.Access(0xB)

			Expect(record.Writeback).To(BeFalse())
		})

		It("should not write back an invalid dirty line", func() {
			c.Fill(tagging.Block{Tag: 2, IsDirty: true, Data: []byte{0, 0}})

			record := c.Access(0x4)

			Expect(record.Hit).To(BeFalse())
			Expect(record.Writeback).To(BeFalse())
		})

		It("should miss on an invalid line with a matching tag", func() {
			c.Fill(tagging.Block{Tag: 2, Data: []byte{0, 0}})

			record := c.Access(0x4)

			Expect(record.Hit).To(BeFalse())
		})
	})

	Context("set-associative", func() {
		var c *Cache

		BeforeEach(func() {
			c = buildCache(storage, 3, 6, 1, 1)
		})

		It("should not change any line on a hit", func() {
			c.Fill(tagging.Block{Tag: 4, SetID: 1, WayID: 2, IsValid: true,
				IsDirty: true, Data: []byte{1, 2}})
			before := c.Sets()

			record := c.Access(c.Mapper().Compose(Fields{Tag: 4, Index: 1}))

			Expect(record.Hit).To(BeTrue())
			Expect(record.Data).To(Equal(byte(1)))
			after := c.Sets()
			for s := range after {
				Expect(after[s].Blocks).To(Equal(before[s].Blocks))
			}
			Expect(c.LRUQueue(1)).To(Equal([]int{0, 1, 2}))
		})

		It("should move the accessed way to the most recently used", func() {
			for w := 0; w < 3; w++ {
				c.Fill(tagging.Block{Tag: uint64(w), SetID: 0, WayID: w,
					IsValid: true, Data: []byte{0, 0}})
			}
			c.SetLRUQueue(0, []int{2, 0, 1})

			c.Access(c.Mapper().Compose(Fields{Tag: 0, Index: 0}))

			Expect(c.LRUQueue(0)).To(Equal([]int{2, 1, 0}))
		})

		It("should replace the least recently used way", func() {
			for w := 0; w < 3; w++ {
				c.Fill(tagging.Block{Tag: uint64(w), SetID: 1, WayID: w,
					IsValid: true, Data: []byte{0, 0}})
			}
			c.SetLRUQueue(1, []int{1, 2, 0})

			record := c.Access(c.Mapper().Compose(Fields{Tag: 7, Index: 1}))

			Expect(record.Hit).To(BeFalse())
			Expect(record.WayID).To(Equal(1))
			Expect(c.Line(1, 1).Tag).To(Equal(uint64(7)))
			Expect(c.LRUQueue(1)).To(Equal([]int{2, 0, 1}))
		})

		It("should keep LRU queues as permutations", func() {
			rng := rand.New(rand.NewSource(1))

			for i := 0; i < 500; i++ {
				addr := uint64(rng.Intn(64))
				record := c.Access(addr)

				queue := c.LRUQueue(record.SetID)
				Expect(queue).To(ConsistOf(0, 1, 2))
				Expect(queue[2]).To(Equal(record.WayID))
			}
		})
	})

	Context("with a custom victim finder and hooks", func() {
		var (
			mockCtrl     *gomock.Controller
			victimFinder *MockVictimFinder
			hook         *MockHook
			c            *Cache
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			victimFinder = NewMockVictimFinder(mockCtrl)
			hook = NewMockHook(mockCtrl)

			mapper, _ := NewAddressMapper(6, 1, 1)
			c = MakeBuilder().
				WithWayAssociativity(2).
				WithMapper(mapper).
				WithBackingStore(storage).
				WithVictimFinder(victimFinder).
				WithHook(hook).
				Build("Cache")
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should replace the block chosen by the victim finder", func() {
			victimFinder.EXPECT().
				FindVictim(gomock.Any()).
				DoAndReturn(func(set *tagging.Set) tagging.Block {
					return set.Blocks[1]
				})
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(Equal(hooking.HookPosAccess))
				Expect(ctx.Domain).To(BeIdenticalTo(c))
				Expect(ctx.Item.(AccessRecord).WayID).To(Equal(1))
			})

			c.Access(0x4)

			Expect(c.Line(0, 1).IsValid).To(BeTrue())
			Expect(c.Line(0, 0).IsValid).To(BeFalse())
		})

		It("should report evictions of valid lines", func() {
			c.Fill(tagging.Block{Tag: 3, SetID: 0, WayID: 0, IsValid: true,
				IsDirty: true, Data: []byte{5, 6}})
			victimFinder.EXPECT().
				FindVictim(gomock.Any()).
				DoAndReturn(func(set *tagging.Set) tagging.Block {
					return set.Blocks[0]
				})

			var positions []*hooking.HookPos
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
				positions = append(positions, ctx.Pos)
				if ctx.Pos == hooking.HookPosEvict {
					Expect(ctx.Item.(tagging.Block).Tag).To(Equal(uint64(3)))
					Expect(ctx.Detail.(AccessRecord).Writeback).To(BeTrue())
				}
			}).Times(2)

			c.Access(0x0)

			Expect(positions).To(Equal([]*hooking.HookPos{
				hooking.HookPosEvict, hooking.HookPosAccess,
			}))
		})
	})
})
