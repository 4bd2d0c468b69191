package memory_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachequiz/memory"
)

var _ = Describe("Storage", func() {
	It("should read and write", func() {
		storage := memory.NewStorage(64)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(0, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2}))

		res, _ = storage.Read(1, 2)
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read the last byte", func() {
		storage := memory.NewStorage(16)
		Expect(storage.Write(15, []byte{9})).To(Succeed())

		res, err := storage.Read(15, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{9}))
	})

	It("should return error if accessing over the capacity", func() {
		storage := memory.NewStorage(16)

		err := storage.Write(15, []byte{1, 2})
		Expect(err).To(MatchError(memory.ErrOutOfRange))

		_, err = storage.Read(17, 1)
		Expect(err).To(MatchError(memory.ErrOutOfRange))
	})

	It("should not expose internal data", func() {
		storage := memory.NewStorage(4)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, _ := storage.Read(0, 4)
		res[0] = 100
		all := storage.Bytes()
		all[1] = 100

		again, _ := storage.Read(0, 4)
		Expect(again).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should randomize deterministically", func() {
		a := memory.NewStorage(256)
		b := memory.NewStorage(256)

		a.Randomize(rand.New(rand.NewSource(7)))
		b.Randomize(rand.New(rand.NewSource(7)))

		Expect(a.Capacity()).To(Equal(uint64(256)))
		Expect(a.Bytes()).To(Equal(b.Bytes()))
	})
})
