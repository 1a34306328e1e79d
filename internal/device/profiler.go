package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrProbeUnavailable is returned by a CapabilityProvider when the host
// cannot answer a probe at all.
var ErrProbeUnavailable = errors.New("probe unavailable")

// Defaults substituted for failed probes. None of them downgrades capability.
const (
	DefaultViewportWidth = 1920
	DefaultPixelRatio    = 1.0
	defaultGPU           = true
	defaultTouch         = false
)

// CapabilityProvider answers capability probes for one host environment
// (browser client hints, the local machine, a test stub).
type CapabilityProvider interface {
	MemoryMB(ctx context.Context) (int, error)
	GPUAccelerated(ctx context.Context) (bool, error)
	TouchCapable(ctx context.Context) (bool, error)
	PixelRatio(ctx context.Context) (float64, error)
	ViewportWidth(ctx context.Context) (int, error)
}

// Profile is an immutable capability snapshot.
type Profile struct {
	ApproxMemoryMB     int     `json:"approx_memory_mb"`
	GPUAccelerated     bool    `json:"gpu_accelerated"`
	TouchCapable       bool    `json:"touch_capable"`
	HighDensityDisplay bool    `json:"high_density_display"`
	Type               Type    `json:"device_type"`
	ViewportWidth      int     `json:"viewport_width"`
	PixelRatio         float64 `json:"pixel_ratio"`
}

// DefaultProfile is what Detect returns when every probe fails.
func DefaultProfile() Profile {
	return Profile{
		ApproxMemoryMB: FallbackMemoryMB(Desktop),
		GPUAccelerated: defaultGPU,
		TouchCapable:   defaultTouch,
		Type:           Desktop,
		ViewportWidth:  DefaultViewportWidth,
		PixelRatio:     DefaultPixelRatio,
	}
}

type Profiler struct {
	log      zerolog.Logger
	provider CapabilityProvider
	debug    bool
}

func NewProfiler(log zerolog.Logger, provider CapabilityProvider, debug bool) *Profiler {
	return &Profiler{log: log, provider: provider, debug: debug}
}

// Detect probes the provider and returns a profile. It never fails: any probe
// that errors or panics is replaced by its default.
func (p *Profiler) Detect(ctx context.Context) Profile {
	out := DefaultProfile()
	if p.provider == nil {
		p.unavailable("provider", errors.New("no capability provider configured"))
		return out
	}

	if w, ok := runProbe(p, "viewport_width", func() (int, error) { return p.provider.ViewportWidth(ctx) }); ok && w > 0 {
		out.ViewportWidth = w
	}
	out.Type = TypeForWidth(out.ViewportWidth)
	out.ApproxMemoryMB = FallbackMemoryMB(out.Type)

	if mb, ok := runProbe(p, "memory", func() (int, error) { return p.provider.MemoryMB(ctx) }); ok && mb > 0 {
		out.ApproxMemoryMB = mb
	}
	if gpu, ok := runProbe(p, "gpu", func() (bool, error) { return p.provider.GPUAccelerated(ctx) }); ok {
		out.GPUAccelerated = gpu
	}
	if touch, ok := runProbe(p, "touch", func() (bool, error) { return p.provider.TouchCapable(ctx) }); ok {
		out.TouchCapable = touch
	}
	if ratio, ok := runProbe(p, "pixel_ratio", func() (float64, error) { return p.provider.PixelRatio(ctx) }); ok && ratio > 0 {
		out.PixelRatio = ratio
	}
	out.HighDensityDisplay = out.PixelRatio > 1

	if p.debug {
		p.log.Debug().
			Int("memory_mb", out.ApproxMemoryMB).
			Bool("gpu", out.GPUAccelerated).
			Bool("touch", out.TouchCapable).
			Bool("high_density", out.HighDensityDisplay).
			Str("device_type", string(out.Type)).
			Msg("device profile detected")
	}
	return out
}

func runProbe[T any](p *Profiler, name string, fn func() (T, error)) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, ok = zero, false
			p.unavailable(name, fmt.Errorf("probe panicked: %v", r))
		}
	}()

	v, err := fn()
	if err != nil {
		p.unavailable(name, err)
		var zero T
		return zero, false
	}
	return v, true
}

func (p *Profiler) unavailable(probe string, err error) {
	if !p.debug {
		return
	}
	p.log.Debug().Err(err).Str("probe", probe).Msg("capability probe unavailable, using default")
}
