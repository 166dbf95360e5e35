package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/probe"
)

var catalogKeys = []string{
	NVIDIAGeForceRTX3070,
	IntelHDGraphics4400,
	AppleM1Pro,
	ARMMaliG78,
	PowerVRRogueGE8300,
	AMDRadeonRX580,
	QualcommAdreno630,
}

func TestBuiltin_Keys(t *testing.T) {
	s := Builtin()
	keys := s.Keys()
	want := append(append([]string{}, catalogKeys...), GeneratedKey)
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if s.Populated(GeneratedKey) {
		t.Error("GeneratedKey is populated in a fresh catalog")
	}
	if got := s.Get(GeneratedKey); got != NullEmulator {
		t.Errorf("Get(GeneratedKey) = %q, want NullEmulator", got)
	}
}

func TestBuiltin_Text(t *testing.T) {
	s := Builtin()

	want := "fn emulatedAlphaToCoverage(alpha: f32, xy: vec2u) -> u32 {\n" +
		"  if alpha <= 0.5 / 4.0 { return 0x0; }\n" +
		"  if alpha <= 1.5 / 4.0 { return 0x1; }\n" +
		"  if alpha <= 2.5 / 4.0 { return 0x3; }\n" +
		"  if alpha <= 3.5 / 4.0 { return 0x7; }\n" +
		"  return 0xf;\n" +
		"}"
	if got := s.Get(IntelHDGraphics4400); got != want {
		t.Errorf("Intel entry =\n%s\nwant\n%s", got, want)
	}

	nvidia := s.Get(NVIDIAGeForceRTX3070)
	for _, line := range []string{
		"if alpha < 253 / 2048.0 { return 0x0; }",
		"if alpha < 1281.5 / 2048.0 { return 0x9; }",
	} {
		if !strings.Contains(nvidia, line) {
			t.Errorf("NVIDIA entry missing %q:\n%s", line, nvidia)
		}
	}

	adreno := s.Get(QualcommAdreno630)
	if !strings.Contains(adreno, "let i = (xy.y % 4) * 4 + (xy.x % 4);") {
		t.Errorf("Adreno entry missing 4x4 index:\n%s", adreno)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s := New()
	if got := s.Get("nope"); got != NullEmulator {
		t.Errorf("Get(unknown) = %q, want NullEmulator", got)
	}
	if _, ok := s.Lookup("nope"); ok {
		t.Error("Lookup(unknown) reported present")
	}
	if _, ok := s.Function("nope"); ok {
		t.Error("Function(unknown) reported present")
	}
}

func TestStore_Put(t *testing.T) {
	s := Builtin()
	fn := &a2c.Function{
		Name:        a2c.DefaultFunctionName,
		Label:       "Test Device",
		SampleCount: 4,
		PatternSize: 1,
		Threshold:   a2c.ThresholdModel{HalfDenominator: 3, Compressed: true},
		Clauses:     []a2c.Clause{{Numerator: 1.5, Masks: []uint32{0}}},
	}

	if err := s.Put(GeneratedKey, fn); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !s.Populated(GeneratedKey) {
		t.Error("GeneratedKey not populated after Put")
	}
	if got := s.Get(GeneratedKey); got != fn.WGSL() {
		t.Errorf("Get after Put = %q, want %q", got, fn.WGSL())
	}
	if s.Len() != len(catalogKeys)+1 {
		t.Errorf("Len() = %d, overwriting added a key", s.Len())
	}

	if err := s.Put("", fn); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Put(empty key) = %v, want ErrEmptyKey", err)
	}
	if err := s.Put("x", nil); !errors.Is(err, ErrNilFunction) {
		t.Errorf("Put(nil) = %v, want ErrNilFunction", err)
	}
}

func TestStore_Match(t *testing.T) {
	s := Builtin()
	tests := []struct {
		info string
		want string
		ok   bool
	}{
		{"NVIDIA GeForce RTX 3070", NVIDIAGeForceRTX3070, true},
		{"  nvidia   geforce rtx 3070 ", NVIDIAGeForceRTX3070, true},
		{"NVIDIA GeForce RTX 3070/PCIe/SSE2", NVIDIAGeForceRTX3070, true},
		{"ＡＲＭ Ｍａｌｉ-Ｇ78", ARMMaliG78, true},
		{"apple m1 pro", AppleM1Pro, true},
		{"NVIDIA GeForce RTX 4090", "", false},
		{GeneratedKey, "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := s.Match(tt.info)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.info, got, ok, tt.want, tt.ok)
		}
	}
}

// TestCatalog_Regenerate probes every catalog entry through a simulated
// device and checks the re-derived emulator observes identically.
func TestCatalog_Regenerate(t *testing.T) {
	if testing.Short() {
		t.Skip("slow: probes 25001 steps per device")
	}
	s := Builtin()
	p := a2c.Params{Size: 4, SampleCount: 4, Increments: a2c.DefaultIncrements}

	for _, key := range catalogKeys {
		t.Run(key, func(t *testing.T) {
			want, ok := s.Function(key)
			if !ok {
				t.Fatalf("catalog entry %q missing", key)
			}
			obs, err := probe.Collect(context.Background(), probe.FromFunction(want, p.Size), p)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			got := a2c.Compress(obs, p)
			if got.PatternSize != want.PatternSize {
				t.Errorf("PatternSize = %d, want %d", got.PatternSize, want.PatternSize)
			}
			for _, o := range obs {
				if g := got.Grid(o.Alpha, p.Size); !g.Equal(o.Grid) {
					t.Fatalf("step %d: emulated %v, observed %v", o.Step, g.Masks, o.Grid.Masks)
				}
			}
		})
	}
}
