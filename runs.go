package a2c

// Run is a maximal sequence of consecutive observations that share the same
// grid. The run starts at StartAlpha and lasts until the next run begins.
type Run struct {
	StartStep  int
	StartAlpha float64
	Pattern    Grid
}

// ExtractRuns collapses an ordered observation sequence into breakpoint runs.
//
// Each observation is compared with its immediate predecessor; a new run
// starts whenever the grid changes. The first observation always starts the
// first run. The result is a pure function of the input and shares no memory
// with it.
func ExtractRuns(obs []Observation) []Run {
	var runs []Run
	for i := range obs {
		if i > 0 && obs[i].Grid.Equal(obs[i-1].Grid) {
			continue
		}
		runs = append(runs, Run{
			StartStep:  obs[i].Step,
			StartAlpha: obs[i].Alpha,
			Pattern:    obs[i].Grid.Clone(),
		})
	}
	return runs
}
