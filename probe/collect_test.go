package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/a2c"
)

func halfFunction() *a2c.Function {
	return &a2c.Function{
		Name:        a2c.DefaultFunctionName,
		Label:       "half",
		SampleCount: 4,
		PatternSize: 1,
		Threshold:   a2c.ThresholdModel{HalfDenominator: 3, Compressed: true},
		Clauses:     []a2c.Clause{{Numerator: 1.5, Masks: []uint32{0x0}}},
	}
}

func TestCollect_Order(t *testing.T) {
	p := a2c.Params{Size: 2, SampleCount: 4, Increments: 10}
	var seen []int
	acq := AcquirerFunc(func(_ context.Context, step, total int) (a2c.Grid, error) {
		if total != p.Increments {
			t.Errorf("total = %d, want %d", total, p.Increments)
		}
		seen = append(seen, step)
		return a2c.UniformGrid(2, 0), nil
	})

	obs, err := Collect(context.Background(), acq, p, WithBatchSize(3))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(obs) != 11 {
		t.Fatalf("got %d observations, want 11", len(obs))
	}
	for i, o := range obs {
		if o.Step != i || seen[i] != i {
			t.Errorf("observation %d has step %d (acquired %d)", i, o.Step, seen[i])
		}
		if o.Alpha != p.Alpha(i) {
			t.Errorf("observation %d alpha = %v, want %v", i, o.Alpha, p.Alpha(i))
		}
	}
}

func TestCollect_Progress(t *testing.T) {
	p := a2c.Params{Size: 1, SampleCount: 4, Increments: 9}
	var reports []Progress
	_, err := Collect(context.Background(), FromFunction(halfFunction(), 1), p,
		WithBatchSize(4),
		WithProgress(func(pr Progress) { reports = append(reports, pr) }))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []int{4, 8, 10}
	if len(reports) != len(want) {
		t.Fatalf("got %d progress reports, want %d", len(reports), len(want))
	}
	for i, r := range reports {
		if r.Done != want[i] || r.Total != 10 {
			t.Errorf("report %d = %+v, want Done=%d Total=10", i, r, want[i])
		}
	}
	if got := reports[len(reports)-1].Percent(); got != 100 {
		t.Errorf("final Percent() = %v, want 100", got)
	}
}

func TestCollect_AcquisitionError(t *testing.T) {
	p := a2c.Params{Size: 1, SampleCount: 4, Increments: 100}
	boom := errors.New("device lost")
	calls := 0
	acq := AcquirerFunc(func(context.Context, int, int) (a2c.Grid, error) {
		calls++
		if calls == 5 {
			return a2c.Grid{}, boom
		}
		return a2c.UniformGrid(1, 0), nil
	})

	obs, err := Collect(context.Background(), acq, p)
	if obs != nil {
		t.Error("partial observations returned on failure")
	}
	if !errors.Is(err, ErrAcquisition) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want ErrAcquisition wrapping the cause", err)
	}
	if calls != 5 {
		t.Errorf("acquirer called %d times after failure, want 5 (no retries)", calls)
	}
}

func TestCollect_Unavailable(t *testing.T) {
	p := a2c.Params{Size: 1, SampleCount: 4, Increments: 10}
	acq := AcquirerFunc(func(context.Context, int, int) (a2c.Grid, error) {
		return a2c.Grid{}, ErrUnavailable
	})
	_, err := Collect(context.Background(), acq, p)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestCollect_InvalidGrid(t *testing.T) {
	p := a2c.Params{Size: 2, SampleCount: 2, Increments: 4}
	tests := []struct {
		name string
		grid a2c.Grid
	}{
		{"wrong size", a2c.UniformGrid(3, 0)},
		{"mask beyond sample count", a2c.UniformGrid(2, 0x4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acq := AcquirerFunc(func(context.Context, int, int) (a2c.Grid, error) {
				return tt.grid, nil
			})
			if _, err := Collect(context.Background(), acq, p); !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("err = %v, want ErrInvalidGrid", err)
			}
		})
	}
}

func TestCollect_InvalidParams(t *testing.T) {
	_, err := Collect(context.Background(), FromFunction(halfFunction(), 1), a2c.Params{})
	if !errors.Is(err, a2c.ErrInvalidParams) {
		t.Errorf("err = %v, want ErrInvalidParams", err)
	}
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := a2c.Params{Size: 1, SampleCount: 4, Increments: 1000}
	calls := 0
	acq := AcquirerFunc(func(context.Context, int, int) (a2c.Grid, error) {
		calls++
		if calls == 10 {
			cancel()
		}
		return a2c.UniformGrid(1, 0), nil
	})

	_, err := Collect(ctx, acq, p)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 10 {
		t.Errorf("acquirer called %d times, want 10", calls)
	}
}

type countingBatcher struct {
	*Simulator
	batches [][2]int
}

func (c *countingBatcher) AcquireBatch(ctx context.Context, first, count, total int) ([]a2c.Grid, error) {
	c.batches = append(c.batches, [2]int{first, count})
	return c.Simulator.AcquireBatch(ctx, first, count, total)
}

func TestCollect_UsesBatches(t *testing.T) {
	p := a2c.Params{Size: 1, SampleCount: 4, Increments: 24}
	acq := &countingBatcher{Simulator: FromFunction(halfFunction(), 1)}

	obs, err := Collect(context.Background(), acq, p, WithBatchSize(10))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(obs) != 25 {
		t.Fatalf("got %d observations, want 25", len(obs))
	}
	want := [][2]int{{0, 10}, {10, 10}, {20, 5}}
	if len(acq.batches) != len(want) {
		t.Fatalf("batches = %v, want %v", acq.batches, want)
	}
	for i := range want {
		if acq.batches[i] != want[i] {
			t.Errorf("batch %d = %v, want %v", i, acq.batches[i], want[i])
		}
	}
}

func TestSimulator_RoundTrip(t *testing.T) {
	p := a2c.Params{Size: 4, SampleCount: 4, Increments: 1000}
	fn := halfFunction()
	obs, err := Collect(context.Background(), FromFunction(fn, p.Size), p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	got := a2c.Compress(obs, p, a2c.WithLabel(LabelOf(FromFunction(fn, 1))))
	if got.WGSL() != fn.WGSL() {
		t.Errorf("re-derived function differs:\n%s\nwant\n%s", got.WGSL(), fn.WGSL())
	}
}

func TestLabelOf(t *testing.T) {
	if got := LabelOf(FromFunction(halfFunction(), 1)); got != "half" {
		t.Errorf("LabelOf(simulator) = %q, want half", got)
	}
	if got := LabelOf(AcquirerFunc(nil)); got != "" {
		t.Errorf("LabelOf(func) = %q, want empty", got)
	}
}
