// Package a2c reverse-engineers hardware alpha-to-coverage.
//
// # Overview
//
// Alpha-to-coverage (A2C) converts a fragment's alpha into a multisample
// coverage mask instead of blending. Drivers keep the mapping opaque, and it
// differs between vendors: some devices use a single mask per alpha, others
// dither the mask over a small repeating block of pixels.
//
// This package turns a dense hardware probe (one grid of sample masks per
// alpha step) into a compact closed form:
//
//  1. [ExtractRuns] collapses consecutive identical grids into breakpoints.
//  2. [InferThreshold] finds the smallest rational denominator and the
//     tie-break direction that describe every breakpoint.
//  3. [InferTileSize] finds the smallest power-of-two tile that repeats
//     across the probe grid.
//  4. [Compress] combines the three into a [Function], which evaluates masks
//     in Go ([Function.Mask]) and renders WGSL ([Function.WGSL]).
//
// # Quick Start
//
//	params := a2c.DefaultParams()
//	obs, err := probe.Collect(ctx, acquirer, params)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fn := a2c.Compress(obs, params, a2c.WithLabel("Apple M1 Pro"))
//	fmt.Println(fn.WGSL())
//
// # Related Packages
//
//   - github.com/gogpu/a2c/probe: acquisition interface and simulated devices
//   - github.com/gogpu/a2c/database: catalog of captured devices
//   - github.com/gogpu/a2c/generate: probe, compress and cache in one step
//   - github.com/gogpu/a2c/capture: capture files for offline compression
//   - github.com/gogpu/a2c/shader: WGSL wrapping and validation
//   - github.com/gogpu/a2c/preview: PNG sheets of emulator functions
//
// # Logging
//
// a2c is silent by default. Call [SetLogger] to route diagnostics to a
// [log/slog.Logger].
package a2c
