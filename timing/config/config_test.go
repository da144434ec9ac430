package config_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32pipe/timing/config"
)

var _ = Describe("SimConfig", func() {
	Describe("Default Values", func() {
		It("has a 64-entry BTB", func() {
			Expect(config.DefaultSimConfig().BTBSize).To(Equal(64))
		})

		It("has a 6-bit GHR", func() {
			Expect(config.DefaultSimConfig().GHRWidth).To(Equal(6))
		})

		It("has a 10 million cycle cap", func() {
			Expect(config.DefaultSimConfig().CycleCap).To(Equal(uint64(10_000_000)))
		})

		It("passes Validate", func() {
			Expect(config.DefaultSimConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validate", func() {
		It("rejects a non-power-of-two BTB size", func() {
			c := config.DefaultSimConfig()
			c.BTBSize = 100
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("rejects a zero cycle cap", func() {
			c := config.DefaultSimConfig()
			c.CycleCap = 0
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("rejects a zero memory depth", func() {
			c := config.DefaultSimConfig()
			c.MemDepthLog = 0
			Expect(c.Validate()).To(HaveOccurred())
		})

		It("rejects a GHR width above 32", func() {
			c := config.DefaultSimConfig()
			c.GHRWidth = 33
			Expect(c.Validate()).To(HaveOccurred())
		})
	})

	Describe("LoadConfig/SaveConfig round trip", func() {
		It("preserves overridden fields and keeps defaults for the rest", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "sim.json")

			original := config.DefaultSimConfig()
			original.BTBSize = 128
			original.Trace = true
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.BTBSize).To(Equal(128))
			Expect(loaded.Trace).To(BeTrue())
			Expect(loaded.GHRWidth).To(Equal(6))
		})

		It("returns an error for a missing file", func() {
			_, err := config.LoadConfig("/nonexistent/path/sim.json")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("returns an independent copy", func() {
			c := config.DefaultSimConfig()
			clone := c.Clone()
			clone.BTBSize = 999
			Expect(c.BTBSize).To(Equal(64))
		})
	})
})
