package thresholds

import "fmt"

var levelNames = [5]string{"minimal", "compact", "normal", "detailed", "expanded"}

type Result struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// Validate reports every invariant s breaks. It never mutates s.
func Validate(s Set) Result {
	violations := make([]string, 0)
	violations = append(violations, orderViolations(s)...)

	if s.Minimal < MinimalFloor || s.Minimal > MinimalCeiling {
		violations = append(violations, fmt.Sprintf("minimal threshold %g must be between %g and %g", s.Minimal, MinimalFloor, MinimalCeiling))
	}
	if s.Expanded > ExpandedLimit {
		violations = append(violations, fmt.Sprintf("expanded threshold %g must not exceed %g", s.Expanded, ExpandedLimit))
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

// Ordered reports whether the cutoffs are strictly increasing, returning the
// violation messages when they are not.
func Ordered(s Set) (bool, []string) {
	v := orderViolations(s)
	return len(v) == 0, v
}

func orderViolations(s Set) []string {
	var out []string
	values := s.Values()
	for i := 1; i < len(values); i++ {
		// NaN fails both comparisons, so test the positive form.
		if !(values[i] > values[i-1]) {
			out = append(out, fmt.Sprintf("%s threshold %g must be greater than %s threshold %g",
				levelNames[i], values[i], levelNames[i-1], values[i-1]))
		}
	}
	return out
}
