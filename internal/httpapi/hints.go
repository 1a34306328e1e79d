package httpapi

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"zoomtier/core-go/internal/device"
)

// hintsProvider answers capability probes from the HTTP client hints a
// browser sends. A missing hint is an unavailable probe.
type hintsProvider struct {
	h http.Header
}

var _ device.CapabilityProvider = hintsProvider{}

func newHintsProvider(r *http.Request) hintsProvider {
	return hintsProvider{h: r.Header}
}

func (p hintsProvider) first(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(p.h.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// MemoryMB reads Device-Memory, which browsers report in (possibly
// fractional) gigabytes.
func (p hintsProvider) MemoryMB(context.Context) (int, error) {
	v := p.first("Sec-CH-Device-Memory", "Device-Memory")
	if v == "" {
		return 0, device.ErrProbeUnavailable
	}
	gb, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(gb * 1024)), nil
}

func (p hintsProvider) GPUAccelerated(context.Context) (bool, error) {
	v := p.first("X-GPU-Accelerated")
	if v == "" {
		return false, device.ErrProbeUnavailable
	}
	return strconv.ParseBool(v)
}

func (p hintsProvider) TouchCapable(context.Context) (bool, error) {
	switch p.first("Sec-CH-UA-Mobile") {
	case "?1":
		return true, nil
	case "?0":
		return false, nil
	default:
		return false, device.ErrProbeUnavailable
	}
}

func (p hintsProvider) PixelRatio(context.Context) (float64, error) {
	v := p.first("Sec-CH-DPR", "DPR")
	if v == "" {
		return 0, device.ErrProbeUnavailable
	}
	return strconv.ParseFloat(v, 64)
}

func (p hintsProvider) ViewportWidth(context.Context) (int, error) {
	v := p.first("Sec-CH-Viewport-Width", "Viewport-Width")
	if v == "" {
		return 0, device.ErrProbeUnavailable
	}
	return strconv.Atoi(v)
}
