package resolution

import (
	"fmt"
	"strings"
)

// Level is a content detail tier. Levels are ordered from cheapest to most
// expensive to render.
type Level int

const (
	Minimal Level = iota
	Compact
	Normal
	Detailed
	Expanded
)

var levelNames = [...]string{"minimal", "compact", "normal", "detailed", "expanded"}

func Levels() []Level {
	return []Level{Minimal, Compact, Normal, Detailed, Expanded}
}

func (l Level) String() string {
	if l < Minimal || l > Expanded {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) Valid() bool {
	return l >= Minimal && l <= Expanded
}

func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown content level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid content level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
