// Package gpuprobe runs the alpha-to-coverage probe on a real GPU.
//
// A Prober renders a full-target triangle whose fragment alpha is
// instance_index/increments onto a multisampled RGBA8 target with
// alpha-to-coverage enabled. Coverage cannot be read per sample through a
// resolve, so each alpha step is drawn once per sample index with a
// pipeline whose sample mask keeps only that sample; the resolved texel is
// non-zero exactly when the sample was covered. Resolved slices are copied
// into one staging buffer per submission and decoded into a2c.Grid masks.
//
// Build with -tags nogpu to compile a stub that always reports
// probe.ErrUnavailable.
package gpuprobe
