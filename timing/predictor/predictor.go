package predictor

// Stats tracks branch-prediction outcomes across a run, the supplemented
// statistics surface grounded on the teacher's BranchPredictorStats.
type Stats struct {
	Predictions    uint64
	Correct        uint64
	Mispredictions uint64
	BTBHits        uint64
	BTBMisses      uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// Config sizes the predictor's tables. Default geometry: N=64 BTB entries,
// H=6-bit global history.
type Config struct {
	BTBSize  int
	GHRWidth int
}

// DefaultConfig returns the predictor's default table geometry.
func DefaultConfig() Config {
	return Config{BTBSize: DefaultBTBSize, GHRWidth: DefaultGHRWidth}
}

// Predictor combines the BTB and the tournament direction predictor into
// the single consult/update surface IF and EX use.
type Predictor struct {
	btb        *BTB
	tournament *Tournament
	stats      Stats
}

// New creates a Predictor from cfg.
func New(cfg Config) *Predictor {
	return &Predictor{
		btb:        NewBTB(cfg.BTBSize),
		tournament: NewTournament(cfg.BTBSize, cfg.GHRWidth),
	}
}

// Predict produces the next-PC selection inputs: a BTB target (if any)
// and a taken/not-taken direction.
func (p *Predictor) Predict(pc uint32) (target uint32, taken bool) {
	target, hit := p.btb.Lookup(pc)
	if hit {
		p.stats.BTBHits++
	} else {
		p.stats.BTBMisses++
	}
	direction := p.tournament.Predict(pc)
	p.stats.Predictions++
	return target, hit && direction
}

// Update folds a resolved branch's outcome back into both the BTB (only
// on taken branches) and the tournament predictor (every resolved
// branch), and updates accuracy statistics.
func (p *Predictor) Update(pc uint32, predictedTaken bool, actualTaken bool, actualTarget uint32) {
	if actualTaken {
		p.btb.Update(pc, actualTarget)
	}
	p.tournament.Update(pc, actualTaken)

	if predictedTaken == actualTaken {
		p.stats.Correct++
	} else {
		p.stats.Mispredictions++
	}
}

// Stats returns a snapshot of prediction statistics.
func (p *Predictor) Stats() Stats {
	return p.stats
}
