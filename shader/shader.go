// Package shader embeds emulator functions into a consumer fragment shader
// and checks them with the naga WGSL front end.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/a2c"
)

//go:embed shaders/consumer.wgsl
var consumerSource string

// EntryPoint is the fragment entry point of wrapped modules.
const EntryPoint = "fmain_emulated"

// AlphaTest is an emulator that behaves like a plain alpha test: nothing
// below one half, everything above.
const AlphaTest = `fn emulatedAlphaToCoverage(alpha: f32, xy: vec2u) -> u32 {
  if alpha < 0.5 { return 0x0; }
  return 0xf;
}`

// ErrInvalid is returned when an emulator does not compile.
var ErrInvalid = errors.New("shader: invalid emulator")

// Wrap returns a complete WGSL module whose fragment entry point calls the
// emulator and writes its result to @builtin(sample_mask). The emulator
// must be named a2c.DefaultFunctionName.
func Wrap(emulator string) string {
	return WrapNamed(emulator, a2c.DefaultFunctionName)
}

// WrapNamed is Wrap for an emulator with a custom function name.
func WrapNamed(emulator, name string) string {
	consumer := consumerSource
	if name != a2c.DefaultFunctionName {
		consumer = strings.ReplaceAll(consumer, a2c.DefaultFunctionName+"(", name+"(")
	}
	return consumer + "\n" + emulator + "\n"
}

// WrapFunction wraps the WGSL text of fn.
func WrapFunction(fn *a2c.Function) string {
	return WrapNamed(fn.WGSL(), fn.Name)
}

// Validate parses, lowers and validates a WGSL module.
func Validate(source string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, &verrs[0])
	}
	return nil
}

// ValidateEmulator checks that emulator text compiles inside the consumer
// shader.
func ValidateEmulator(emulator string) error {
	return Validate(Wrap(emulator))
}

// ValidateFunction checks the WGSL text of fn inside the consumer shader.
func ValidateFunction(fn *a2c.Function) error {
	return Validate(WrapFunction(fn))
}

// SPIRV compiles the wrapped emulator to a SPIR-V binary for Vulkan
// consumers.
func SPIRV(emulator string) ([]byte, error) {
	code, err := naga.Compile(Wrap(emulator))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return code, nil
}
