package device

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// StaticProvider answers every probe from fixed values. A non-nil error field
// makes the matching probe fail.
type StaticProvider struct {
	Memory   int
	GPU      bool
	Touch    bool
	Ratio    float64
	Width    int
	MemErr   error
	GPUErr   error
	TouchErr error
	RatioErr error
	WidthErr error
}

func (s StaticProvider) MemoryMB(context.Context) (int, error) { return s.Memory, s.MemErr }
func (s StaticProvider) GPUAccelerated(context.Context) (bool, error) { return s.GPU, s.GPUErr }
func (s StaticProvider) TouchCapable(context.Context) (bool, error) { return s.Touch, s.TouchErr }
func (s StaticProvider) PixelRatio(context.Context) (float64, error) { return s.Ratio, s.RatioErr }
func (s StaticProvider) ViewportWidth(context.Context) (int, error) { return s.Width, s.WidthErr }

// Env variables consulted by HostProvider for values a headless host cannot
// measure itself.
const (
	EnvTouch         = "CORE_DEVICE_TOUCH"
	EnvViewportWidth = "CORE_VIEWPORT_WIDTH"
	EnvPixelRatio    = "CORE_PIXEL_RATIO"
)

// HostProvider measures the machine the process runs on.
type HostProvider struct {
	MeminfoPath string
	DRIPath     string
	Getenv      func(string) string
}

func NewHostProvider() HostProvider {
	return HostProvider{
		MeminfoPath: "/proc/meminfo",
		DRIPath:     "/dev/dri",
		Getenv:      os.Getenv,
	}
}

func (h HostProvider) MemoryMB(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Open(h.MeminfoPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeUnavailable, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, fmt.Errorf("parse MemTotal: %w", err)
		}
		return kb / 1024, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("%w: MemTotal not found in %s", ErrProbeUnavailable, h.MeminfoPath)
}

// GPUAccelerated reports whether a DRM render node is present.
func (h HostProvider) GPUAccelerated(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	matches, err := fs.Glob(os.DirFS(h.DRIPath), "renderD*")
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		if _, statErr := os.Stat(h.DRIPath); statErr != nil {
			return false, fmt.Errorf("%w: %s", ErrProbeUnavailable, filepath.Clean(h.DRIPath))
		}
	}
	return len(matches) > 0, nil
}

func (h HostProvider) TouchCapable(context.Context) (bool, error) {
	v := h.env(EnvTouch)
	if v == "" {
		return false, ErrProbeUnavailable
	}
	return strconv.ParseBool(v)
}

func (h HostProvider) PixelRatio(context.Context) (float64, error) {
	v := h.env(EnvPixelRatio)
	if v == "" {
		return 0, ErrProbeUnavailable
	}
	return strconv.ParseFloat(v, 64)
}

func (h HostProvider) ViewportWidth(context.Context) (int, error) {
	v := h.env(EnvViewportWidth)
	if v == "" {
		return 0, ErrProbeUnavailable
	}
	return strconv.Atoi(v)
}

func (h HostProvider) env(key string) string {
	getenv := h.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return strings.TrimSpace(getenv(key))
}
