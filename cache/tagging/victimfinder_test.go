package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LRUVictimFinder", func() {
	var (
		finder *LRUVictimFinder
		tags   TagArray
	)

	BeforeEach(func() {
		finder = NewLRUVictimFinder()
		tags = NewTagArray(1, 4, 2)
	})

	It("should find the block at the front of the LRU queue", func() {
		tags.SetLRUQueue(0, []int{2, 0, 3, 1})

		victim := finder.FindVictim(tags.GetSet(0))

		Expect(victim.WayID).To(Equal(2))
	})

	It("should not prefer invalid blocks", func() {
		tags.Update(Block{SetID: 0, WayID: 1, IsValid: true, Data: []byte{0, 0}})
		tags.SetLRUQueue(0, []int{1, 0, 2, 3})

		victim := finder.FindVictim(tags.GetSet(0))

		Expect(victim.WayID).To(Equal(1))
		Expect(victim.IsValid).To(BeTrue())
	})
})
