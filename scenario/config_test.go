package scenario_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachequiz/display"
	"github.com/sarchlab/cachequiz/scenario"
)

var _ = Describe("Config", func() {
	It("should accept the default configuration", func() {
		Expect(scenario.DefaultConfig().Validate()).To(Succeed())
	})

	DescribeTable("should reject impossible configurations",
		func(mutate func(*scenario.Config), field string) {
			cfg := scenario.DefaultConfig()
			mutate(&cfg)

			err := cfg.Validate()

			var configErr *scenario.ConfigError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Field).To(Equal(field))

			s, buildErr := scenario.Generate(cfg)
			Expect(buildErr).To(Equal(err))
			Expect(s).To(BeNil())
		},
		Entry("no ways", func(c *scenario.Config) { c.Ways = 0 }, "ways"),
		Entry("negative set bits",
			func(c *scenario.Config) { c.SetBits = -1 }, "set_bits"),
		Entry("negative block bits",
			func(c *scenario.Config) { c.BlockBits = -1 }, "block_bits"),
		Entry("too wide addresses",
			func(c *scenario.Config) { c.AddrBits = scenario.MaxAddrBits + 1 },
			"addr_bits"),
		Entry("no room for a tag", func(c *scenario.Config) {
			c.AddrBits = 3
			c.SetBits = 2
			c.BlockBits = 1
		}, "addr_bits"),
		Entry("cache larger than memory", func(c *scenario.Config) {
			c.Ways = 8
			c.AddrBits = 4
		}, "ways"),
		Entry("unknown base",
			func(c *scenario.Config) { c.Base = display.Base(5) }, "base"),
		Entry("unknown fill",
			func(c *scenario.Config) { c.Fill = scenario.FillPolicy(9) }, "fill"),
		Entry("negative access count",
			func(c *scenario.Config) { c.NumAddr = -1 }, "num_addr"),
		Entry("negative hit count",
			func(c *scenario.Config) { c.MinHits = -1 }, "min_hits"),
		Entry("negative miss count",
			func(c *scenario.Config) { c.MinMisses = -1 }, "min_misses"),
		Entry("minimums above the access count", func(c *scenario.Config) {
			c.NumAddr = 4
			c.MinHits = 3
			c.MinMisses = 2
		}, "min_hits"),
		Entry("all hits on an empty cache", func(c *scenario.Config) {
			c.Fill = scenario.FillEmpty
			c.NumAddr = 3
			c.MinHits = 3
		}, "min_hits"),
		Entry("every tag fits in a set", func(c *scenario.Config) {
			c.Ways = 8
			c.SetBits = 0
			c.BlockBits = 0
			c.AddrBits = 3
		}, "ways"),
		Entry("replayed address out of range", func(c *scenario.Config) {
			c.Addresses = []uint64{3, 32}
		}, "addresses"),
	)

	It("should allow a full tag space when replaying", func() {
		cfg := scenario.DefaultConfig()
		cfg.Ways = 8
		cfg.SetBits = 0
		cfg.BlockBits = 0
		cfg.AddrBits = 3
		cfg.Addresses = []uint64{1, 2}

		Expect(cfg.Validate()).To(Succeed())
	})

	It("should promote partial fill when valid bits are hidden", func() {
		cfg := scenario.DefaultConfig()
		cfg.Fill = scenario.FillPartial

		Expect(cfg.EffectiveFill()).To(Equal(scenario.FillFull))

		cfg.ShowValid = true
		Expect(cfg.EffectiveFill()).To(Equal(scenario.FillPartial))
	})

	It("should decode from JSON", func() {
		var cfg scenario.Config

		err := json.Unmarshal([]byte(`{
			"ways": 4, "set_bits": 2, "block_bits": 2, "addr_bits": 8,
			"base": "bin", "fill": "partial", "show_valid": true,
			"num_addr": 6, "min_hits": 2, "min_misses": 2, "seed": 7
		}`), &cfg)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Base).To(Equal(display.Bin))
		Expect(cfg.Fill).To(Equal(scenario.FillPartial))
		Expect(cfg.Replay()).To(BeFalse())
		Expect(cfg.TagBits()).To(Equal(4))
		Expect(cfg.Validate()).To(Succeed())
	})

	DescribeTable("should report unknown selectors in JSON as config errors",
		func(doc, field string) {
			var cfg scenario.Config

			err := json.Unmarshal([]byte(doc), &cfg)

			var configErr *scenario.ConfigError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Field).To(Equal(field))
		},
		Entry("base", `{"base": "oct"}`, "base"),
		Entry("fill", `{"fill": "half"}`, "fill"),
	)

	It("should reject unknown fill names", func() {
		_, err := scenario.ParseFillPolicy("half")
		Expect(err).To(HaveOccurred())

		p, err := scenario.ParseFillPolicy(" Empty ")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(scenario.FillEmpty))
	})
})
