//go:build !nogpu

package gpuprobe

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Vulkan backend registration for Open.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/a2c"
	"github.com/gogpu/a2c/probe"
)

//go:embed shaders/probe.wgsl
var probeShaderSource string

const (
	probeFormat = gputypes.TextureFormatRGBA8Unorm

	// maxStepsPerSubmit bounds the staging buffer of one submission.
	maxStepsPerSubmit = 256

	// readbackTimeout bounds the wait for one submission to complete.
	readbackTimeout = 30 * time.Second
)

// ErrClosed is returned by a Prober used after Close.
var ErrClosed = errors.New("gpuprobe: prober closed")

// Prober acquires coverage grids from a GPU. It implements
// probe.BatchAcquirer and probe.Labeler.
//
// A Prober is safe for concurrent use; renders are serialized.
type Prober struct {
	mu sync.Mutex

	// Owned when created by Open.
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	owned    bool

	device *wgpu.Device
	queue  *wgpu.Queue
	label  string
	params a2c.Params
	layout sliceLayout

	msaaTex     *wgpu.Texture
	msaaView    *wgpu.TextureView
	resolveTex  *wgpu.Texture
	resolveView *wgpu.TextureView

	// Pipelines are built for one increments value and rebuilt when the
	// caller probes with another.
	increments int
	shader     *wgpu.ShaderModule
	pipeLayout *wgpu.PipelineLayout
	pipelines  []*wgpu.RenderPipeline // one per sample index

	closed bool
}

var (
	_ probe.BatchAcquirer = (*Prober)(nil)
	_ probe.Labeler       = (*Prober)(nil)
)

// Open creates a Vulkan instance, picks a high-performance adapter and
// opens a device for probing. The returned Prober owns the device; call
// Close to release it.
//
// Failing to find an adapter or device is reported as probe.ErrUnavailable.
func Open(p a2c.Params) (*Prober, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	instance, err := wgpu.CreateInstance(&wgpu.InstanceDescriptor{Backends: wgpu.BackendsVulkan})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", probe.ErrUnavailable, err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", probe.ErrUnavailable, err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "a2c_probe_device"})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", probe.ErrUnavailable, err)
	}

	info := adapter.Info()
	pr, err := newProber(device, p, adapterLabel(info))
	if err != nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, err
	}
	pr.instance = instance
	pr.adapter = adapter
	pr.owned = true

	a2c.Logger().Info("gpuprobe: device opened",
		"adapter", info.Name, "backend", info.Backend.String(), "driver", info.Driver)
	return pr, nil
}

// NewWithDevice creates a Prober on a device owned by the caller. Close
// releases only the probe's own resources.
func NewWithDevice(device *wgpu.Device, p a2c.Params, label string) (*Prober, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: nil device", probe.ErrUnavailable)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return newProber(device, p, label)
}

// NewFromProvider creates a Prober on the device of a host application.
// The provider must be backed by a *wgpu.Device.
func NewFromProvider(provider gpucontext.DeviceProvider, p a2c.Params) (*Prober, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil device provider", probe.ErrUnavailable)
	}
	device, ok := provider.Device().(*wgpu.Device)
	if !ok {
		return nil, fmt.Errorf("%w: provider device is %T, not *wgpu.Device",
			probe.ErrUnavailable, provider.Device())
	}

	info := provider.AdapterInfo()
	label := info.Name
	if adapter, ok := provider.Adapter().(*wgpu.Adapter); ok && adapter != nil {
		label = adapterLabel(adapter.Info())
	}
	if info.Type == gpucontext.AdapterTypeSoftware {
		a2c.Logger().Warn("gpuprobe: probing a software adapter", "adapter", label)
	}
	return NewWithDevice(device, p, label)
}

func newProber(device *wgpu.Device, p a2c.Params, label string) (*Prober, error) {
	pr := &Prober{
		device: device,
		queue:  device.Queue(),
		label:  label,
		params: p,
		layout: newSliceLayout(p.Size),
	}
	if err := pr.createTargets(); err != nil {
		pr.releaseResources()
		return nil, err
	}
	return pr, nil
}

func (pr *Prober) createTargets() error {
	size := uint32(pr.params.Size)           //nolint:gosec // validated positive
	samples := uint32(pr.params.SampleCount) //nolint:gosec // validated 1..32
	extent := wgpu.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1}

	var err error
	pr.msaaTex, err = pr.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "a2c_probe_msaa",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        probeFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create msaa texture: %w", err)
	}
	pr.msaaView, err = pr.device.CreateTextureView(pr.msaaTex, viewDescriptor("a2c_probe_msaa_view"))
	if err != nil {
		return fmt.Errorf("create msaa view: %w", err)
	}

	pr.resolveTex, err = pr.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "a2c_probe_resolve",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        probeFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create resolve texture: %w", err)
	}
	pr.resolveView, err = pr.device.CreateTextureView(pr.resolveTex, viewDescriptor("a2c_probe_resolve_view"))
	if err != nil {
		return fmt.Errorf("create resolve view: %w", err)
	}
	return nil
}

func viewDescriptor(label string) *wgpu.TextureViewDescriptor {
	return &wgpu.TextureViewDescriptor{
		Label:         label,
		Format:        probeFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	}
}

// shaderSource returns the probe shader for the given number of alpha
// increments.
func shaderSource(increments int) string {
	return fmt.Sprintf("const kAlphaIncrements: f32 = %d.0;\n\n", increments) + probeShaderSource
}

func (pr *Prober) ensurePipelines(increments int) error {
	if pr.pipelines != nil && pr.increments == increments {
		return nil
	}
	pr.releasePipelines()

	var err error
	pr.shader, err = pr.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "a2c_probe_shader",
		WGSL:  shaderSource(increments),
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	pr.pipeLayout, err = pr.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: "a2c_probe_layout",
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	pr.pipelines = make([]*wgpu.RenderPipeline, pr.params.SampleCount)
	for s := range pr.pipelines {
		pr.pipelines[s], err = pr.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  fmt.Sprintf("a2c_probe_sample_%d", s),
			Layout: pr.pipeLayout,
			Vertex: wgpu.VertexState{
				Module:     pr.shader,
				EntryPoint: "vs_main",
			},
			Fragment: &wgpu.FragmentState{
				Module:     pr.shader,
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{{
					Format:    probeFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				}},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{
				Count:                  uint32(pr.params.SampleCount), //nolint:gosec // validated 1..32
				Mask:                   1 << uint(s),
				AlphaToCoverageEnabled: true,
			},
		})
		if err != nil {
			return fmt.Errorf("create pipeline for sample %d: %w", s, err)
		}
	}
	pr.increments = increments
	a2c.Logger().Debug("gpuprobe: pipelines built",
		"increments", increments, "samples", pr.params.SampleCount)
	return nil
}

// Acquire renders alpha step/total and returns the coverage grid.
func (pr *Prober) Acquire(ctx context.Context, step, total int) (a2c.Grid, error) {
	grids, err := pr.AcquireBatch(ctx, step, 1, total)
	if err != nil {
		return a2c.Grid{}, err
	}
	return grids[0], nil
}

// AcquireBatch renders count consecutive alpha steps starting at first.
// Steps are split into submissions of at most maxStepsPerSubmit.
func (pr *Prober) AcquireBatch(ctx context.Context, first, count, total int) ([]a2c.Grid, error) {
	if total < 1 || first < 0 || count < 1 || first+count-1 > total {
		return nil, fmt.Errorf("gpuprobe: steps [%d, %d) outside [0, %d]", first, first+count, total)
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return nil, ErrClosed
	}
	if err := pr.ensurePipelines(total); err != nil {
		return nil, err
	}

	grids := make([]a2c.Grid, 0, count)
	for done := 0; done < count; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(count-done, maxStepsPerSubmit)
		chunk, err := pr.renderSteps(ctx, first+done, n)
		if err != nil {
			return nil, err
		}
		grids = append(grids, chunk...)
		done += n
	}
	return grids, nil
}

// renderSteps encodes n steps times SampleCount passes into one command
// buffer, submits it and decodes the staging buffer.
func (pr *Prober) renderSteps(ctx context.Context, first, n int) ([]a2c.Grid, error) {
	samples := pr.params.SampleCount
	size := uint32(pr.params.Size) //nolint:gosec // validated positive
	bufSize := uint64(pr.layout.sliceBytes) * uint64(n*samples)

	staging, err := pr.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "a2c_probe_staging",
		Size:  bufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := pr.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "a2c_probe_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	encoderConsumed := false
	defer func() {
		if !encoderConsumed {
			encoder.DiscardEncoding()
		}
	}()

	for i := 0; i < n; i++ {
		step := uint32(first + i) //nolint:gosec // bounded by total
		for s := 0; s < samples; s++ {
			if err := pr.encodePass(encoder, step, s); err != nil {
				return nil, err
			}
			encoder.TransitionTextures([]wgpu.TextureBarrier{{
				Texture: pr.resolveTex,
				Usage: wgpu.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageRenderAttachment,
					NewUsage: gputypes.TextureUsageCopySrc,
				},
			}})
			offset := uint64(pr.layout.sliceBytes) * uint64(i*samples+s)
			encoder.CopyTextureToBuffer(pr.resolveTex, staging, []wgpu.BufferTextureCopy{{
				BufferLayout: wgpu.ImageDataLayout{
					Offset:       offset,
					BytesPerRow:  uint32(pr.layout.bytesPerRow), //nolint:gosec // small
					RowsPerImage: size,
				},
				TextureBase: wgpu.ImageCopyTexture{Texture: pr.resolveTex, MipLevel: 0},
				Size:        wgpu.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
			}})
			encoder.TransitionTextures([]wgpu.TextureBarrier{{
				Texture: pr.resolveTex,
				Usage: wgpu.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageCopySrc,
					NewUsage: gputypes.TextureUsageRenderAttachment,
				},
			}})
		}
	}

	cmdBuf, err := encoder.Finish()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	encoderConsumed = true

	if _, err := pr.queue.Submit(cmdBuf); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	mapCtx, cancel := context.WithTimeout(ctx, readbackTimeout)
	defer cancel()
	if err := staging.Map(mapCtx, wgpu.MapModeRead, 0, bufSize); err != nil {
		return nil, fmt.Errorf("map staging: %w", err)
	}
	rng, err := staging.MappedRange(0, bufSize)
	if err != nil {
		if err := staging.Unmap(); err != nil {
			a2c.Logger().Warn("gpuprobe: unmap failed", "err", err)
		}
		return nil, fmt.Errorf("mapped range: %w", err)
	}
	data := make([]byte, bufSize)
	copy(data, rng.Bytes())
	if err := staging.Unmap(); err != nil {
		a2c.Logger().Warn("gpuprobe: unmap failed", "err", err)
	}

	return decodeGrids(data, pr.layout, n, samples), nil
}

// encodePass draws alpha step with the pipeline keeping only sample s.
func (pr *Prober) encodePass(encoder *wgpu.CommandEncoder, step uint32, s int) error {
	rp, err := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "a2c_probe_pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:          pr.msaaView,
			ResolveTarget: pr.resolveView,
			LoadOp:        gputypes.LoadOpClear,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue:    gputypes.Color{},
		}},
	})
	if err != nil {
		return fmt.Errorf("begin render pass: %w", err)
	}
	rp.SetPipeline(pr.pipelines[s])
	rp.Draw(3, 1, 0, step)
	if err := rp.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}
	return nil
}

// Label returns the adapter description used to label generated
// emulators.
func (pr *Prober) Label() string {
	return pr.label
}

// Params returns the probe parameters the Prober was created with.
func (pr *Prober) Params() a2c.Params {
	return pr.params
}

// Close releases GPU resources. Devices passed in by the caller are left
// open. Close is idempotent.
func (pr *Prober) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return
	}
	pr.closed = true
	pr.releaseResources()
}

func (pr *Prober) releasePipelines() {
	for _, p := range pr.pipelines {
		if p != nil {
			p.Release()
		}
	}
	pr.pipelines = nil
	if pr.pipeLayout != nil {
		pr.pipeLayout.Release()
		pr.pipeLayout = nil
	}
	if pr.shader != nil {
		pr.shader.Release()
		pr.shader = nil
	}
	pr.increments = 0
}

func (pr *Prober) releaseResources() {
	pr.releasePipelines()
	if pr.resolveView != nil {
		pr.resolveView.Release()
		pr.resolveView = nil
	}
	if pr.resolveTex != nil {
		pr.resolveTex.Release()
		pr.resolveTex = nil
	}
	if pr.msaaView != nil {
		pr.msaaView.Release()
		pr.msaaView = nil
	}
	if pr.msaaTex != nil {
		pr.msaaTex.Release()
		pr.msaaTex = nil
	}
	if pr.owned {
		pr.device.Release()
		pr.adapter.Release()
		pr.instance.Release()
		pr.owned = false
	}
}

// adapterLabel formats adapter info as "<vendor> <name> (<driver>)". The
// vendor is dropped when the name already starts with it; the driver
// description joins Driver and DriverInfo and is left out when both are
// empty.
func adapterLabel(info wgpu.AdapterInfo) string {
	name := strings.TrimSpace(info.Name)
	vendor := strings.TrimSpace(info.Vendor)
	label := name
	if vendor != "" && !strings.HasPrefix(strings.ToLower(name), strings.ToLower(vendor)) {
		label = strings.TrimSpace(vendor + " " + name)
	}

	driver := strings.Join(strings.Fields(info.Driver+" "+info.DriverInfo), " ")
	switch {
	case driver == "":
		return label
	case label == "":
		return driver
	}
	return label + " (" + driver + ")"
}
