package a2c

import "math/bits"

// CompressOption configures Compress.
type CompressOption func(*compressOptions)

type compressOptions struct {
	label string
	name  string
}

func defaultCompressOptions() compressOptions {
	return compressOptions{name: DefaultFunctionName}
}

// WithLabel sets the device label emitted as the function's leading comment.
func WithLabel(label string) CompressOption {
	return func(o *compressOptions) {
		o.label = label
	}
}

// WithFunctionName overrides the emitted WGSL function name.
func WithFunctionName(name string) CompressOption {
	return func(o *compressOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// Compress derives an emulator function from an ordered probe capture.
// It never fails: when no compact form fits, the result falls back to raw
// probe-resolution fractions and a full-size pattern. The grid size always
// comes from the observations; p only supplies the sample and increment
// counts, and those are inferred when p leaves them out.
func Compress(obs []Observation, p Params, opts ...CompressOption) *Function {
	return CompressRuns(ExtractRuns(obs), p, opts...)
}

// CompressRuns is Compress for already extracted runs, as stored in
// capture files.
func CompressRuns(runs []Run, p Params, opts ...CompressOption) *Function {
	o := defaultCompressOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p = resolveParams(runs, p)
	model := InferThreshold(runs, p.Increments)
	patternSize := InferTileSize(runs, p.Size)

	fn := &Function{
		Name:        o.name,
		Label:       o.label,
		SampleCount: p.SampleCount,
		PatternSize: patternSize,
		Threshold:   model,
	}
	// Each clause covers [run i, run i+1); the last run falls through to
	// the full-coverage default.
	for i := 0; i+1 < len(runs); i++ {
		fn.Clauses = append(fn.Clauses, Clause{
			Numerator: model.Numerator(runs[i+1].StartAlpha),
			Masks:     runs[i].Pattern.Block(patternSize),
		})
	}

	Logger().Info("a2c: compressed capture",
		"runs", len(runs),
		"halfDenominator", model.HalfDenominator,
		"tieBreakDownward", model.TieBreakDownward,
		"patternSize", patternSize)
	return fn
}

// resolveParams takes the grid size from the runs themselves and fills in
// a sample count and increment count when p does not describe a usable
// probe.
func resolveParams(runs []Run, p Params) Params {
	if len(runs) > 0 {
		p.Size = runs[0].Pattern.Size
		for _, r := range runs[1:] {
			p.Size = min(p.Size, r.Pattern.Size)
		}
	}
	p.Size = max(p.Size, 1)

	if p.SampleCount < 1 || p.SampleCount > 32 {
		var seen uint32
		for _, r := range runs {
			for _, m := range r.Pattern.Masks {
				seen |= m
			}
		}
		p.SampleCount = max(bits.Len32(seen), 1)
	}
	if p.Increments < 1 {
		p.Increments = DefaultIncrements
	}
	return p
}
