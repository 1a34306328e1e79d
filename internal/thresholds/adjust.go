package thresholds

// LowMemoryMB is the memory ceiling below which the expensive levels are
// pushed further out.
const LowMemoryMB = 2048

const (
	lowMemoryDetailedFactor = 1.2
	lowMemoryExpandedFactor = 1.3
	touchMinimalFactor      = 0.9
	touchCompactFactor      = 0.95
)

// Capabilities is the subset of a device profile that drives threshold
// adjustment.
type Capabilities struct {
	MemoryMB int
	Touch    bool
}

// Adjust applies device corrections to base. When base is itself the output
// of Adjust the corrections are applied to its origin, so repeated calls with
// the same capabilities return the same set.
func Adjust(base Set, c Capabilities) Set {
	base = base.Base()
	out := base
	out.origin = base.Values()
	out.adjusted = true
	if c.MemoryMB < LowMemoryMB {
		out.Detailed = base.Detailed * lowMemoryDetailedFactor
		out.Expanded = base.Expanded * lowMemoryExpandedFactor
	}
	if c.Touch {
		out.Minimal = base.Minimal * touchMinimalFactor
		out.Compact = base.Compact * touchCompactFactor
	}
	return out
}
