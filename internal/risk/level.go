package risk

import (
	"fmt"
	"sort"
	"strings"
)

// #region parse-level
// ParseLevel maps a level string to a Level. Matching is case-insensitive;
// anything unrecognized becomes LevelUnknown.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelMinimal:
		return LevelMinimal
	case LevelLow:
		return LevelLow
	case LevelModerate:
		return LevelModerate
	case LevelHigh:
		return LevelHigh
	case LevelCritical:
		return LevelCritical
	default:
		return LevelUnknown
	}
}

// Severity ranks a level; unknown ranks below minimal.
func (l Level) Severity() int {
	switch l {
	case LevelMinimal:
		return 0
	case LevelLow:
		return 1
	case LevelModerate:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return -1
	}
}

// Escalates reports whether the level warrants pushing an intervention to the user.
func (l Level) Escalates() bool {
	return l == LevelHigh || l == LevelCritical
}

// #endregion parse-level

// #region intervention-order
// Rank orders intervention types by urgency, immediate first.
func (t InterventionType) Rank() int {
	switch t {
	case InterventionImmediate:
		return 0
	case InterventionProactive:
		return 1
	case InterventionTherapeutic:
		return 2
	default:
		return 3
	}
}

// ParseInterventionType validates an intervention type string.
func ParseInterventionType(s string) (InterventionType, error) {
	t := InterventionType(strings.ToLower(strings.TrimSpace(s)))
	if t.Rank() > 2 {
		return "", fmt.Errorf("unknown intervention type %q", s)
	}
	return t, nil
}

// SortInterventions returns a copy ordered immediate → proactive → therapeutic.
// Entries of the same type keep their relative order.
func SortInterventions(in []Intervention) []Intervention {
	out := make([]Intervention, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type.Rank() < out[j].Type.Rank()
	})
	return out
}

// #endregion intervention-order
