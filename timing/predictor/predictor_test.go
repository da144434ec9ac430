package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32pipe/timing/predictor"
)

var _ = Describe("Predictor", func() {
	It("never predicts taken without a BTB target, even with a taken-leaning direction", func() {
		p := predictor.New(predictor.DefaultConfig())
		_, taken := p.Predict(0x1000)
		Expect(taken).To(BeFalse())
	})

	It("predicts a BTB hit's target once a taken branch has been resolved there", func() {
		p := predictor.New(predictor.DefaultConfig())
		p.Update(0x1000, false, true, 0x2000)

		target, taken := p.Predict(0x1000)
		Expect(taken).To(BeTrue())
		Expect(target).To(Equal(uint32(0x2000)))
	})

	It("drops the BTB entry's effect once the direction predictor saturates not-taken", func() {
		p := predictor.New(predictor.DefaultConfig())
		p.Update(0x1000, false, true, 0x2000)
		for i := 0; i < 4; i++ {
			p.Update(0x1000, true, false, 0)
		}

		_, taken := p.Predict(0x1000)
		Expect(taken).To(BeFalse())
	})

	It("accumulates accuracy statistics", func() {
		p := predictor.New(predictor.DefaultConfig())
		p.Update(0x1000, false, true, 0x2000)
		p.Predict(0x1000)
		p.Update(0x1000, true, true, 0x2000)

		stats := p.Stats()
		Expect(stats.Predictions).To(Equal(uint64(1)))
		Expect(stats.Correct).To(Equal(uint64(1)))
		Expect(stats.Accuracy()).To(Equal(100.0))
	})

	It("reports 0 accuracy before any prediction has been made", func() {
		p := predictor.New(predictor.DefaultConfig())
		Expect(p.Stats().Accuracy()).To(Equal(0.0))
	})
})
