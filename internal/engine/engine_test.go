package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"zoomtier/core-go/internal/device"
	"zoomtier/core-go/internal/metrics"
	"zoomtier/core-go/internal/resolution"
	"zoomtier/core-go/internal/thresholds"
)

func ptr(v float64) *float64 { return &v }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(zerolog.Nop(), Options{Metrics: metrics.New()})
}

var capableDesktop = device.StaticProvider{Memory: 16384, GPU: true, Ratio: 1, Width: 1440}

func TestDetermineContentLevel_DefaultScenario(t *testing.T) {
	e := newTestEngine(t)
	e.Initialize(context.Background(), capableDesktop, false)

	scales := []float64{0.5, 0.7, 0.9, 1.2, 2.5}
	want := []resolution.Level{resolution.Minimal, resolution.Compact, resolution.Normal, resolution.Detailed, resolution.Expanded}
	for i, s := range scales {
		got, err := e.DetermineContentLevel(s)
		if err != nil {
			t.Fatalf("scale %v: %v", s, err)
		}
		if got != want[i] {
			t.Fatalf("scale %v: expected %s, got %s", s, want[i], got)
		}
	}
	if got := e.CacheStats().Size; got != len(scales) {
		t.Fatalf("expected %d cache entries, got %d", len(scales), got)
	}
}

func TestCalculateResponsiveScale(t *testing.T) {
	e := newTestEngine(t)

	if got := e.ResponsiveScale(1.5, device.Mobile); got != 1.2 {
		t.Fatalf("mobile: expected 1.2, got %v", got)
	}
	if got := e.ResponsiveScale(1.5, device.Tablet); got != 1.35 {
		t.Fatalf("tablet: expected 1.35, got %v", got)
	}
	if got := e.ResponsiveScale(1.5, device.Desktop); got != 1.5 {
		t.Fatalf("desktop: expected 1.5, got %v", got)
	}
}

func TestCalculateResponsiveScale_DefaultsToCurrentDevice(t *testing.T) {
	e := New(zerolog.Nop(), Options{ViewportWidth: 600})
	if e.CurrentDeviceType() != device.Mobile {
		t.Fatalf("expected mobile from seeded viewport, got %s", e.CurrentDeviceType())
	}
	if got := e.ResponsiveScale(1.5); got != 1.2 {
		t.Fatalf("expected mobile scaling, got %v", got)
	}

	e.Initialize(context.Background(), device.StaticProvider{Width: 900, Memory: 4096}, false)
	if got := e.ResponsiveScale(1.5); got != 1.35 {
		t.Fatalf("expected tablet scaling after detection, got %v", got)
	}
}

func TestInitialize_AdjustsForConstrainedTouchDevice(t *testing.T) {
	e := newTestEngine(t)
	p := e.Initialize(context.Background(), device.StaticProvider{Memory: 1024, Touch: true, Width: 390, Ratio: 3}, false)

	if p.Type != device.Mobile || !p.TouchCapable || !p.HighDensityDisplay {
		t.Fatalf("unexpected profile %+v", p)
	}
	got := e.Thresholds().Values()
	want := [5]float64{0.54, 0.76, 1.0, 1.8, 2.6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	// Between 1.5 and 1.8 is detailed only on the constrained device.
	l, err := e.DetermineContentLevel(1.7)
	if err != nil {
		t.Fatal(err)
	}
	if l != resolution.Detailed {
		t.Fatalf("expected detailed, got %s", l)
	}
}

func TestInitialize_RunsOnce(t *testing.T) {
	e := newTestEngine(t)
	first := e.Initialize(context.Background(), device.StaticProvider{Memory: 1024, Width: 390}, false)
	second := e.Initialize(context.Background(), capableDesktop, false)
	if first != second {
		t.Fatalf("expected second initialize to be a no-op, got %+v then %+v", first, second)
	}
}

func TestRedetect_DoesNotCompound(t *testing.T) {
	e := newTestEngine(t)
	lowMem := device.StaticProvider{Memory: 1024, Touch: true, Width: 390}
	e.Initialize(context.Background(), lowMem, false)
	once := e.Thresholds()

	e.Redetect(context.Background(), lowMem)
	e.Redetect(context.Background(), lowMem)
	if got := e.Thresholds(); got != once {
		t.Fatalf("expected repeated detection to be idempotent, got %v want %v", got, once)
	}

	e.Redetect(context.Background(), capableDesktop)
	if got := e.Thresholds().Values(); got != thresholds.Defaults().Values() {
		t.Fatalf("expected capable device to use defaults, got %v", got)
	}
}

func TestSetCustomThresholds_MergesAndInvalidates(t *testing.T) {
	e := newTestEngine(t)
	e.Initialize(context.Background(), capableDesktop, false)
	for _, s := range []float64{0.5, 0.9, 1.9} {
		if _, err := e.DetermineContentLevel(s); err != nil {
			t.Fatal(err)
		}
	}
	if e.CacheStats().Size == 0 {
		t.Fatalf("expected populated cache")
	}

	got := e.SetCustomThresholds(thresholds.Partial{Expanded: ptr(3)})
	if got.Expanded != 3 || got.Detailed != 1.5 {
		t.Fatalf("expected merge onto current thresholds, got %v", got)
	}
	if size := e.CacheStats().Size; size != 0 {
		t.Fatalf("expected cache cleared, got %d", size)
	}

	l, err := e.DetermineContentLevel(2.5)
	if err != nil {
		t.Fatal(err)
	}
	if l != resolution.Expanded {
		t.Fatalf("expected expanded, got %s", l)
	}
}

func TestSetCustomThresholds_SurvivesRedetect(t *testing.T) {
	e := newTestEngine(t)
	e.Initialize(context.Background(), capableDesktop, false)
	e.SetCustomThresholds(thresholds.Partial{Minimal: ptr(0.5)})

	e.Redetect(context.Background(), device.StaticProvider{Memory: 1024, Touch: true, Width: 390})
	got := e.Thresholds()
	if got.Minimal != 0.5 {
		t.Fatalf("expected caller override to win over touch adjustment, got %v", got)
	}
	if math.Abs(got.Detailed-1.8) > 1e-9 {
		t.Fatalf("expected low-memory adjustment on untouched fields, got %v", got)
	}
}

func TestResetThresholds_RestoresDefaultsAndInvalidates(t *testing.T) {
	e := newTestEngine(t)
	e.Initialize(context.Background(), device.StaticProvider{Memory: 1024, Touch: true, Width: 390}, false)
	e.SetCustomThresholds(thresholds.Partial{Normal: ptr(1.1)})
	_, _ = e.DetermineContentLevel(1.0)
	_, _ = e.DetermineContentLevel(2.0)

	got := e.ResetThresholds()
	if got != thresholds.Defaults() {
		t.Fatalf("expected defaults, got %v", got)
	}
	if e.Thresholds() != thresholds.Defaults() {
		t.Fatalf("expected active thresholds to be defaults, got %v", e.Thresholds())
	}
	if size := e.CacheStats().Size; size != 0 {
		t.Fatalf("expected cache cleared, got %d", size)
	}
}

func TestInvalidCustomThresholds(t *testing.T) {
	e := newTestEngine(t)
	e.SetCustomThresholds(thresholds.Partial{Compact: ptr(0.5)})

	res := e.ValidateThresholds()
	if res.Valid || len(res.Violations) == 0 {
		t.Fatalf("expected invalid thresholds, got %+v", res)
	}

	_, err := e.DetermineContentLevel(1)
	if !errors.Is(err, resolution.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	e.ResetThresholds()
	if res := e.ValidateThresholds(); !res.Valid {
		t.Fatalf("expected defaults to validate, got %v", res.Violations)
	}
	if _, err := e.DetermineContentLevel(1); err != nil {
		t.Fatalf("expected engine to recover, got %v", err)
	}
}

func TestPolicyAccessors(t *testing.T) {
	e := newTestEngine(t)

	if e.IsInteractivityEnabled(resolution.Minimal) {
		t.Fatalf("expected minimal to be non-interactive")
	}
	if !e.IsInteractivityEnabled(resolution.Compact) {
		t.Fatalf("expected compact to be interactive")
	}
	if got := len(e.ContentFeatures(resolution.Detailed)); got != 5 {
		t.Fatalf("expected 5 detailed features, got %d", got)
	}
	styles := e.ProgressiveStyles(resolution.Normal, true)
	if !styles.Active || !styles.Interactive {
		t.Fatalf("unexpected styles %+v", styles)
	}
}

func TestEngines_AreIndependent(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	a.SetCustomThresholds(thresholds.Partial{Minimal: ptr(0.2)})
	_, _ = a.DetermineContentLevel(0.3)

	if b.Thresholds() != thresholds.Defaults() {
		t.Fatalf("expected b to keep defaults, got %v", b.Thresholds())
	}
	if b.CacheStats().Size != 0 {
		t.Fatalf("expected b cache to be empty")
	}
}

func TestReplaceCustomThresholds_DropsEarlierOverrides(t *testing.T) {
	e := newTestEngine(t)
	e.Initialize(context.Background(), device.StaticProvider{Memory: 1024, Width: 390}, false)
	e.SetCustomThresholds(thresholds.Partial{Minimal: ptr(0.3), Normal: ptr(1.2)})

	got := e.ReplaceCustomThresholds(thresholds.Partial{Normal: ptr(1.1)})
	if got.Minimal != 0.6 || got.Normal != 1.1 {
		t.Fatalf("expected only the new override on top of defaults, got %v", got)
	}
	if math.Abs(got.Expanded-2.6) > 1e-9 {
		t.Fatalf("expected device adjustment kept, got %v", got)
	}
	if e.CacheStats().Size != 0 {
		t.Fatalf("expected cache cleared")
	}
}
