package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	name string
	log  *[]string
}

func (h *recordingHook) Func(ctx HookCtx) {
	*h.log = append(*h.log, h.name+":"+ctx.Pos.Name)
}

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		log  []string
	)

	BeforeEach(func() {
		base = &HookableBase{}
		log = nil
	})

	It("should invoke hooks in registration order", func() {
		base.AcceptHook(&recordingHook{name: "a", log: &log})
		base.AcceptHook(&recordingHook{name: "b", log: &log})

		base.InvokeHook(HookCtx{Pos: HookPosAccess})
		base.InvokeHook(HookCtx{Pos: HookPosEvict})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(base.Hooks()).To(HaveLen(2))
		Expect(log).To(Equal([]string{
			"a:Access", "b:Access", "a:Evict", "b:Evict",
		}))
	})

	It("should panic on duplicated hook", func() {
		hook := &recordingHook{name: "a", log: &log}
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})
})
