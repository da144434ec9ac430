package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32pipe/timing/predictor"
)

var _ = Describe("Tournament", func() {
	It("predicts taken by default (weakly-taken counters)", func() {
		t := predictor.NewTournament(64, 6)
		Expect(t.Predict(0x1000)).To(BeTrue())
	})

	It("flips to not-taken after enough not-taken outcomes saturate the counters", func() {
		t := predictor.NewTournament(64, 6)
		for i := 0; i < 4; i++ {
			t.Update(0x1000, false)
		}
		Expect(t.Predict(0x1000)).To(BeFalse())
	})

	It("returns to taken after enough taken outcomes re-saturate the counters", func() {
		t := predictor.NewTournament(64, 6)
		for i := 0; i < 4; i++ {
			t.Update(0x1000, false)
		}
		Expect(t.Predict(0x1000)).To(BeFalse())

		for i := 0; i < 4; i++ {
			t.Update(0x1000, true)
		}
		Expect(t.Predict(0x1000)).To(BeTrue())
	})

	It("tracks a different PC's history independently", func() {
		t := predictor.NewTournament(64, 6)
		for i := 0; i < 4; i++ {
			t.Update(0x1000, false)
		}
		Expect(t.Predict(0x1000)).To(BeFalse())
		Expect(t.Predict(0x1004)).To(BeTrue())
	})
})
