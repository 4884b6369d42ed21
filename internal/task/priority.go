package task

import (
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the enumeration in rank order.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func ParsePriority(v string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(v))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, v)
	}
}

func (p Priority) Valid() bool {
	_, err := ParsePriority(string(p))
	return err == nil
}

// Rank orders priorities high(1) < medium(2) < low(3). Unknown values rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Raise moves one step towards high, stopping at high.
func (p Priority) Raise() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	default:
		return PriorityHigh
	}
}

// Lower moves one step towards low, stopping at low.
func (p Priority) Lower() Priority {
	switch p {
	case PriorityHigh:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func (p Priority) String() string { return string(p) }

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
