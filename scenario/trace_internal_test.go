package scenario

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachequiz/cache/tagging"
)

var _ = Describe("lineIndex", func() {
	var x *lineIndex

	BeforeEach(func() {
		x = newLineIndex([]tagging.Set{
			{Blocks: []tagging.Block{
				{SetID: 0, WayID: 0, IsValid: true},
				{SetID: 0, WayID: 1},
			}},
			{Blocks: []tagging.Block{
				{SetID: 1, WayID: 0},
				{SetID: 1, WayID: 1},
			}},
		})
	})

	It("should split valid and invalid lines", func() {
		Expect(x.valid).To(ConsistOf(lineRef{0, 0}))
		Expect(x.invalid).To(ConsistOf(
			lineRef{0, 1}, lineRef{1, 0}, lineRef{1, 1}))
	})

	It("should move a refilled line to the valid list", func() {
		x.markValid(lineRef{0, 1})
		x.markValid(lineRef{1, 1})

		Expect(x.valid).To(ConsistOf(
			lineRef{0, 0}, lineRef{0, 1}, lineRef{1, 1}))
		Expect(x.invalid).To(ConsistOf(lineRef{1, 0}))
		Expect(x.invalidPos).To(Equal(map[lineRef]int{{1, 0}: 0}))
	})

	It("should ignore lines that are already valid", func() {
		x.markValid(lineRef{0, 0})

		Expect(x.valid).To(HaveLen(1))
		Expect(x.invalid).To(HaveLen(3))
	})
})
