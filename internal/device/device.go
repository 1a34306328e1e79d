package device

import (
	"fmt"
	"math"
	"strings"
)

type Type string

const (
	Mobile  Type = "mobile"
	Tablet  Type = "tablet"
	Desktop Type = "desktop"
)

// Viewport breakpoints, inclusive.
const (
	MobileMaxWidth = 768
	TabletMaxWidth = 1024
)

var multipliers = map[Type]float64{
	Mobile:  0.8,
	Tablet:  0.9,
	Desktop: 1.0,
}

var fallbackMemoryMB = map[Type]int{
	Mobile:  1024,
	Tablet:  2048,
	Desktop: 4096,
}

// TypeForWidth classifies a viewport width in CSS pixels.
func TypeForWidth(width int) Type {
	switch {
	case width <= MobileMaxWidth:
		return Mobile
	case width <= TabletMaxWidth:
		return Tablet
	default:
		return Desktop
	}
}

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Mobile:
		return Mobile, nil
	case Tablet:
		return Tablet, nil
	case Desktop:
		return Desktop, nil
	default:
		return "", fmt.Errorf("unknown device type %q", s)
	}
}

func (t Type) Valid() bool {
	_, ok := multipliers[t]
	return ok
}

// Multiplier returns the scale factor for t. Unknown types scale like desktop.
func (t Type) Multiplier() float64 {
	if m, ok := multipliers[t]; ok {
		return m
	}
	return 1.0
}

// ResponsiveScale adjusts a raw zoom scale for the device type. The result
// is rounded to four decimals so that products like 1.5*0.9 come out exact.
func ResponsiveScale(raw float64, t Type) float64 {
	return math.Round(raw*t.Multiplier()*1e4) / 1e4
}

// FallbackMemoryMB is the memory estimate used when no native probe answers.
func FallbackMemoryMB(t Type) int {
	if mb, ok := fallbackMemoryMB[t]; ok {
		return mb
	}
	return fallbackMemoryMB[Desktop]
}
