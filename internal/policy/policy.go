package policy

import (
	"zoomtier/core-go/internal/resolution"
)

type Padding string

const (
	PaddingNone   Padding = "none"
	PaddingSmall  Padding = "small"
	PaddingMedium Padding = "medium"
	PaddingLarge  Padding = "large"
	PaddingXLarge Padding = "xlarge"
)

const (
	FeatureIcon        = "icon"
	FeatureTitle       = "title"
	FeatureDescription = "description"
	FeatureMetadata    = "metadata"
	FeatureActions     = "actions"
	FeaturePreview     = "preview"
	FeatureRelated     = "related"
)

type Emphasis string

const (
	EmphasisNone      Emphasis = "none"
	EmphasisSubtle    Emphasis = "subtle"
	EmphasisHighlight Emphasis = "highlight"
)

// RenderPolicy tells a renderer what to draw for a content level.
type RenderPolicy struct {
	Level       resolution.Level `json:"level"`
	Features    []string         `json:"features"`
	Padding     Padding          `json:"padding"`
	Interactive bool             `json:"interactive"`
	Active      bool             `json:"active"`
	Emphasis    Emphasis         `json:"emphasis"`
}

var table = [...]RenderPolicy{
	resolution.Minimal: {
		Level:    resolution.Minimal,
		Features: []string{FeatureIcon},
		Padding:  PaddingNone,
	},
	resolution.Compact: {
		Level:       resolution.Compact,
		Features:    []string{FeatureIcon, FeatureTitle},
		Padding:     PaddingSmall,
		Interactive: true,
	},
	resolution.Normal: {
		Level:       resolution.Normal,
		Features:    []string{FeatureIcon, FeatureTitle, FeatureDescription},
		Padding:     PaddingMedium,
		Interactive: true,
	},
	resolution.Detailed: {
		Level:       resolution.Detailed,
		Features:    []string{FeatureIcon, FeatureTitle, FeatureDescription, FeatureMetadata, FeatureActions},
		Padding:     PaddingLarge,
		Interactive: true,
	},
	resolution.Expanded: {
		Level:       resolution.Expanded,
		Features:    []string{FeatureIcon, FeatureTitle, FeatureDescription, FeatureMetadata, FeatureActions, FeaturePreview, FeatureRelated},
		Padding:     PaddingXLarge,
		Interactive: true,
	},
}

// Project returns the fixed render policy for level. Out-of-range levels get
// the minimal policy.
func Project(level resolution.Level) RenderPolicy {
	if !level.Valid() {
		level = resolution.Minimal
	}
	p := table[level]
	p.Features = append([]string(nil), p.Features...)
	p.Emphasis = EmphasisNone
	return p
}

func Features(level resolution.Level) []string {
	return Project(level).Features
}

func Interactive(level resolution.Level) bool {
	return level.Valid() && table[level].Interactive
}

// ProgressiveStyles is Project plus the active-state emphasis used when the
// user is focused on the element.
func ProgressiveStyles(level resolution.Level, active bool) RenderPolicy {
	if !level.Valid() {
		level = resolution.Minimal
	}
	p := Project(level)
	p.Active = active
	switch {
	case !active:
		p.Emphasis = EmphasisNone
	case level >= resolution.Normal:
		p.Emphasis = EmphasisHighlight
	default:
		p.Emphasis = EmphasisSubtle
	}
	return p
}
