package a2c

import "math"

// Slack factors applied to the one-step tolerance. The looser factor accepts
// breakpoints that were observed one step late (downward tie-break); the
// tighter one detects that case.
const (
	toleranceSlack    = 1.0001
	tieBreakThreshold = 0.999
)

// ThresholdModel describes every breakpoint as numerator/HalfDenominator with
// a half-integer numerator.
type ThresholdModel struct {
	HalfDenominator int

	// TieBreakDownward reports that an alpha exactly on a breakpoint still
	// selects the pattern below it (emitted as <=).
	TieBreakDownward bool

	// Compressed is false when no candidate fit and HalfDenominator is the
	// probe resolution.
	Compressed bool
}

// Numerator returns the half-integer numerator closest to alpha.
func (m ThresholdModel) Numerator(alpha float64) float64 {
	return math.Round(alpha*float64(m.HalfDenominator)*2) / 2
}

// Comparison returns the WGSL comparison operator for clause thresholds.
func (m ThresholdModel) Comparison() string {
	if m.TieBreakDownward {
		return "<="
	}
	return "<"
}

// CandidateDenominators returns the denominators tried by InferThreshold in
// increasing order: powers of two from 4 to 4096 and each power minus one.
func CandidateDenominators() []int {
	var out []int
	for d := 4; d <= 4096; d *= 2 {
		out = append(out, d-1, d)
	}
	return out
}

// InferThreshold finds the smallest candidate denominator that reproduces
// every run's start alpha within one probe step, together with a consistent
// tie-break direction. When nothing fits it falls back to the probe
// resolution (increments) with an upward tie-break.
func InferThreshold(runs []Run, increments int) ThresholdModel {
	tol := 1 / float64(increments)
	log := Logger()
	for _, d := range CandidateDenominators() {
		downward, ok := fitDenominator(runs, d, tol)
		if !ok {
			continue
		}
		log.Debug("a2c: denominator found", "halfDenominator", d, "tieBreakDownward", downward)
		return ThresholdModel{HalfDenominator: d, TieBreakDownward: downward, Compressed: true}
	}
	log.Debug("a2c: no denominator fits, using probe resolution", "halfDenominator", increments)
	return ThresholdModel{HalfDenominator: increments}
}

// fitDenominator checks one candidate. The first run is skipped for the
// tie-break check because alpha=0 is not a real threshold.
func fitDenominator(runs []Run, d int, tol float64) (downward, ok bool) {
	decided := false
	for i, r := range runs {
		delta := floorResidual(r.StartAlpha, d)
		if delta > tol*toleranceSlack {
			return false, false
		}
		if i == 0 {
			continue
		}
		atValue := delta > tol*tieBreakThreshold
		if !decided {
			downward, decided = atValue, true
		} else if atValue != downward {
			return false, false
		}
	}
	return downward, true
}

// floorResidual is how far alpha lies above the closest lower multiple of
// 1/(2d).
func floorResidual(alpha float64, d int) float64 {
	numerator := math.Floor(alpha*float64(d)*2) / 2
	return alpha - numerator/float64(d)
}
