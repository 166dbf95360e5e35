package shader

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/database"
)

func TestValidateEmulator_Catalog(t *testing.T) {
	s := database.Builtin()
	for _, key := range s.Keys() {
		t.Run(key, func(t *testing.T) {
			if err := ValidateEmulator(s.Get(key)); err != nil {
				t.Errorf("ValidateEmulator: %v\n%s", err, Wrap(s.Get(key)))
			}
		})
	}
}

func TestValidateEmulator_Builtins(t *testing.T) {
	for name, text := range map[string]string{
		"null":       database.NullEmulator,
		"alpha test": AlphaTest,
	} {
		if err := ValidateEmulator(text); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestValidateEmulator_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing", ""},
		{"syntax", "fn emulatedAlphaToCoverage(alpha: f32, xy: vec2u) -> u32 { return }"},
		{"unknown identifier", "fn emulatedAlphaToCoverage(alpha: f32, xy: vec2u) -> u32 { return kMissing; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateEmulator(tt.text); !errors.Is(err, ErrInvalid) {
				t.Errorf("ValidateEmulator = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWrapNamed(t *testing.T) {
	fn := &a2c.Function{
		Name:        "myCoverage",
		SampleCount: 4,
		PatternSize: 1,
		Threshold:   a2c.ThresholdModel{HalfDenominator: 3, Compressed: true},
		Clauses:     []a2c.Clause{{Numerator: 1.5, Masks: []uint32{0}}},
	}
	src := WrapFunction(fn)
	if strings.Contains(src, a2c.DefaultFunctionName) {
		t.Errorf("wrapped source still calls %s:\n%s", a2c.DefaultFunctionName, src)
	}
	if !strings.Contains(src, "let mask = myCoverage(") {
		t.Errorf("wrapped source does not call myCoverage:\n%s", src)
	}
	if !strings.Contains(src, "fn "+EntryPoint+"(") {
		t.Errorf("wrapped source lacks entry point %s", EntryPoint)
	}
	if err := ValidateFunction(fn); err != nil {
		t.Errorf("ValidateFunction: %v", err)
	}
}

func TestSPIRV(t *testing.T) {
	code, err := SPIRV(database.Builtin().Get(database.ARMMaliG78))
	if err != nil {
		t.Fatalf("SPIRV: %v", err)
	}
	if len(code) < 20 || len(code)%4 != 0 {
		t.Fatalf("SPIR-V binary has %d bytes", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x", magic)
	}
}
