package a2c

import (
	"errors"
	"testing"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"default", DefaultParams(), false},
		{"single pixel", Params{Size: 1, SampleCount: 1, Increments: 1}, false},
		{"32 samples", Params{Size: 4, SampleCount: 32, Increments: 10}, false},
		{"zero size", Params{Size: 0, SampleCount: 4, Increments: 10}, true},
		{"too many samples", Params{Size: 4, SampleCount: 33, Increments: 10}, true},
		{"no samples", Params{Size: 4, SampleCount: 0, Increments: 10}, true},
		{"no increments", Params{Size: 4, SampleCount: 4, Increments: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate() error = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestParamsFullMask(t *testing.T) {
	tests := []struct {
		samples int
		want    uint32
	}{
		{1, 0x1},
		{4, 0xf},
		{8, 0xff},
		{16, 0xffff},
		{32, 0xffffffff},
	}
	for _, tt := range tests {
		p := Params{SampleCount: tt.samples}
		if got := p.FullMask(); got != tt.want {
			t.Errorf("FullMask(%d samples) = %#x, want %#x", tt.samples, got, tt.want)
		}
	}
}

func TestParamsAlpha(t *testing.T) {
	p := DefaultParams()
	if got := p.Alpha(0); got != 0 {
		t.Errorf("Alpha(0) = %v", got)
	}
	if got := p.Alpha(p.Increments); got != 1 {
		t.Errorf("Alpha(Increments) = %v, want 1", got)
	}
	if got := p.Tolerance(); got != 1.0/25000 {
		t.Errorf("Tolerance() = %v, want 1/25000", got)
	}
}
