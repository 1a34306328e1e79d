// Package engine ties device profiling, threshold adjustment, level
// resolution and policy projection into one explicitly constructed instance.
// Independent engines share no state.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"zoomtier/core-go/internal/device"
	"zoomtier/core-go/internal/metrics"
	"zoomtier/core-go/internal/policy"
	"zoomtier/core-go/internal/resolution"
	"zoomtier/core-go/internal/thresholds"
)

type Options struct {
	CacheCapacity int
	// ViewportWidth seeds the current device type before Initialize runs.
	// Zero means desktop.
	ViewportWidth int
	Metrics       *metrics.Metrics
}

type Engine struct {
	log      zerolog.Logger
	metrics  *metrics.Metrics
	resolver *resolution.Resolver

	mu sync.RWMutex
	// Active thresholds are defaults, adjusted for the profile when
	// deviceAdjusted is set, with caller overrides layered on top.
	overrides      thresholds.Partial
	deviceAdjusted bool
	profile        device.Profile
	initialized    bool
	debug          bool
}

func New(log zerolog.Logger, opts Options) *Engine {
	profile := device.DefaultProfile()
	if opts.ViewportWidth > 0 {
		profile.ViewportWidth = opts.ViewportWidth
		profile.Type = device.TypeForWidth(opts.ViewportWidth)
	}
	return &Engine{
		log:      log.With().Str("component", "engine").Logger(),
		metrics:  opts.Metrics,
		resolver: resolution.New(thresholds.Defaults(), resolution.Options{CacheCapacity: opts.CacheCapacity}, opts.Metrics),
		profile:  profile,
	}
}

// Initialize profiles the device once and adapts the thresholds to it.
// Later calls are no-ops; use Redetect to profile again.
func (e *Engine) Initialize(ctx context.Context, provider device.CapabilityProvider, debug bool) device.Profile {
	e.mu.Lock()
	if e.initialized {
		p := e.profile
		e.mu.Unlock()
		return p
	}
	e.initialized = true
	e.debug = debug
	e.mu.Unlock()

	return e.Redetect(ctx, provider)
}

// Redetect profiles the device again and rebuilds the active thresholds from
// the defaults, so corrections never compound. Caller overrides survive.
func (e *Engine) Redetect(ctx context.Context, provider device.CapabilityProvider) device.Profile {
	e.mu.RLock()
	debug := e.debug
	e.mu.RUnlock()

	profile := device.NewProfiler(e.log, provider, debug).Detect(ctx)
	e.metrics.IncDeviceDetection(string(profile.Type))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = profile
	e.deviceAdjusted = true
	adjusted := e.activeLocked()
	e.resolver.SetThresholds(adjusted)

	ev := e.log.Info()
	if debug {
		ev = e.log.Debug()
	}
	ev.Str("device_type", string(profile.Type)).
		Int("memory_mb", profile.ApproxMemoryMB).
		Bool("touch", profile.TouchCapable).
		Stringer("thresholds", adjusted).
		Msg("thresholds adapted to device")
	return profile
}

func (e *Engine) activeLocked() thresholds.Set {
	set := thresholds.Defaults()
	if e.deviceAdjusted {
		set = thresholds.Adjust(set, capabilities(e.profile))
	}
	if e.overrides.IsZero() {
		return set
	}
	return set.Merge(e.overrides)
}

func capabilities(p device.Profile) thresholds.Capabilities {
	return thresholds.Capabilities{MemoryMB: p.ApproxMemoryMB, Touch: p.TouchCapable}
}

func (e *Engine) Profile() device.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

func (e *Engine) CurrentDeviceType() device.Type {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile.Type
}

// ResponsiveScale scales raw for deviceType, or for the current device type
// when none is given.
func (e *Engine) ResponsiveScale(raw float64, deviceType ...device.Type) float64 {
	t := e.CurrentDeviceType()
	if len(deviceType) > 0 && deviceType[0].Valid() {
		t = deviceType[0]
	}
	return device.ResponsiveScale(raw, t)
}

func (e *Engine) DetermineContentLevel(scale float64) (resolution.Level, error) {
	l, err := e.resolver.Resolve(scale)
	if err != nil {
		e.log.Warn().Err(err).Float64("scale", scale).Msg("content level resolution failed")
		return 0, err
	}
	return l, nil
}

func (e *Engine) ProgressiveStyles(level resolution.Level, active bool) policy.RenderPolicy {
	return policy.ProgressiveStyles(level, active)
}

func (e *Engine) ContentFeatures(level resolution.Level) []string {
	return policy.Features(level)
}

func (e *Engine) IsInteractivityEnabled(level resolution.Level) bool {
	return policy.Interactive(level)
}

// Thresholds returns the active cutoffs.
func (e *Engine) Thresholds() thresholds.Set {
	return e.resolver.Thresholds()
}

// SetCustomThresholds merges p onto the active cutoffs and clears the cache.
// The merged set is not validated; call ValidateThresholds to check it.
func (e *Engine) SetCustomThresholds(p thresholds.Partial) thresholds.Set {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.overrides = e.overrides.Merge(p)
	merged := e.activeLocked()
	e.resolver.SetThresholds(merged)
	e.log.Info().Stringer("thresholds", merged).Msg("custom thresholds applied")
	return merged
}

// ReplaceCustomThresholds drops earlier overrides and layers p over the
// device-adjusted defaults. Config reloads use this so removed keys revert.
func (e *Engine) ReplaceCustomThresholds(p thresholds.Partial) thresholds.Set {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.overrides = thresholds.Partial{}.Merge(p)
	set := e.activeLocked()
	e.resolver.SetThresholds(set)
	e.log.Info().Stringer("thresholds", set).Msg("custom thresholds replaced")
	return set
}

// ResetThresholds restores the static defaults, without device adjustment,
// and clears the cache.
func (e *Engine) ResetThresholds() thresholds.Set {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.overrides = thresholds.Partial{}
	e.deviceAdjusted = false
	defaults := e.activeLocked()
	e.resolver.SetThresholds(defaults)
	e.log.Info().Msg("thresholds reset to defaults")
	return defaults
}

func (e *Engine) ValidateThresholds() thresholds.Result {
	return thresholds.Validate(e.resolver.Thresholds())
}

func (e *Engine) CacheStats() resolution.Stats {
	return e.resolver.Stats()
}
