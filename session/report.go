package session

import "github.com/cwbudde/algo-evp/classify"

// Report is the complete session summary for external reporting
// collaborators.
//
//nolint:revive
type Report struct {
	Classifications []classify.Classification
	Stats           Stats

	// BaselineRMS_dB is the calibrated noise floor; only meaningful when
	// Stats.Calibrated is true.
	BaselineRMS_dB float64

	Caveats []string
}

// Session caveats attached to every report. The A/B/C scheme is a
// labeling convention, not a measure of evidential value.
var reportCaveats = []string{
	"EVP classification is a labeling convention borrowed from hobbyist practice; it is not a scientifically validated taxonomy.",
	"Anomalous energy relative to a calibrated floor has many mundane causes: RF interference, device self-noise, handling, wind.",
	"Low-confidence and Class C results are highly susceptible to pareidolia and should not be treated as voice evidence.",
}

// FullAnalysis returns the complete session summary: every retained
// classification, the tally counters, the calibrated floor and the
// standing caveats.
func (p *Pipeline) FullAnalysis() Report {
	r := Report{
		Classifications: p.History(),
		Stats:           p.stats,
		Caveats:         append([]string(nil), reportCaveats...),
	}

	if b := p.calibrator.Baseline(); b != nil {
		r.BaselineRMS_dB = b.RMS_dB
	}

	return r
}
