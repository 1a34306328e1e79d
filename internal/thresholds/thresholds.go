package thresholds

import (
	"fmt"
)

const (
	MinimalFloor   = 0.1
	MinimalCeiling = 1.0
	ExpandedLimit  = 5.0
)

// Set holds the five scale cutoffs, one per content level. A scale equal to a
// cutoff belongs to the lower level.
type Set struct {
	Minimal  float64 `json:"minimal" yaml:"minimal"`
	Compact  float64 `json:"compact" yaml:"compact"`
	Normal   float64 `json:"normal" yaml:"normal"`
	Detailed float64 `json:"detailed" yaml:"detailed"`
	Expanded float64 `json:"expanded" yaml:"expanded"`

	// origin holds the cutoffs Adjust started from, so adjusting an already
	// adjusted set starts over instead of compounding.
	origin   [5]float64
	adjusted bool
}

// Partial overrides individual cutoffs. Nil fields keep the current value.
type Partial struct {
	Minimal  *float64 `json:"minimal,omitempty" yaml:"minimal,omitempty"`
	Compact  *float64 `json:"compact,omitempty" yaml:"compact,omitempty"`
	Normal   *float64 `json:"normal,omitempty" yaml:"normal,omitempty"`
	Detailed *float64 `json:"detailed,omitempty" yaml:"detailed,omitempty"`
	Expanded *float64 `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

func Defaults() Set {
	return Set{
		Minimal:  0.6,
		Compact:  0.8,
		Normal:   1.0,
		Detailed: 1.5,
		Expanded: 2.0,
	}
}

// Values returns the cutoffs in ascending level order.
func (s Set) Values() [5]float64 {
	return [5]float64{s.Minimal, s.Compact, s.Normal, s.Detailed, s.Expanded}
}

func (s Set) String() string {
	return fmt.Sprintf("{minimal:%g compact:%g normal:%g detailed:%g expanded:%g}",
		s.Minimal, s.Compact, s.Normal, s.Detailed, s.Expanded)
}

// Base returns the set Adjust derived s from, or s itself when s was not
// produced by Adjust.
func (s Set) Base() Set {
	if !s.adjusted {
		return s
	}
	return fromValues(s.origin)
}

func (s Set) Adjusted() bool {
	return s.adjusted
}

func fromValues(v [5]float64) Set {
	return Set{Minimal: v[0], Compact: v[1], Normal: v[2], Detailed: v[3], Expanded: v[4]}
}

// Merge returns s with every non-nil field of p applied. The result is an
// explicit configuration and no longer remembers any adjustment origin.
func (s Set) Merge(p Partial) Set {
	s = fromValues(s.Values())
	if p.Minimal != nil {
		s.Minimal = *p.Minimal
	}
	if p.Compact != nil {
		s.Compact = *p.Compact
	}
	if p.Normal != nil {
		s.Normal = *p.Normal
	}
	if p.Detailed != nil {
		s.Detailed = *p.Detailed
	}
	if p.Expanded != nil {
		s.Expanded = *p.Expanded
	}
	return s
}

func (p Partial) IsZero() bool {
	return p.Minimal == nil && p.Compact == nil && p.Normal == nil && p.Detailed == nil && p.Expanded == nil
}

// Merge layers q over p; fields set in q win. Values are copied.
func (p Partial) Merge(q Partial) Partial {
	p.Minimal = pick(p.Minimal, q.Minimal)
	p.Compact = pick(p.Compact, q.Compact)
	p.Normal = pick(p.Normal, q.Normal)
	p.Detailed = pick(p.Detailed, q.Detailed)
	p.Expanded = pick(p.Expanded, q.Expanded)
	return p
}

func pick(cur, next *float64) *float64 {
	if next == nil {
		return cur
	}
	v := *next
	return &v
}
