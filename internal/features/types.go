package features

import "math"

// #region group
// Group names a logical family of features.
type Group string

const (
	GroupMood       Group = "mood"
	GroupBehavioral Group = "behavioral"
	GroupSentiment  Group = "sentiment"
)

// #endregion group

// #region vector
// Vector maps feature names to values.
type Vector map[string]float64

// Get returns the value for name and whether it is present. NaN counts as absent.
func (v Vector) Get(name string) (float64, bool) {
	x, ok := v[name]
	if !ok || math.IsNaN(x) {
		return 0, false
	}
	return x, true
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Merge overlays others onto a copy of v. Later vectors win.
func (v Vector) Merge(others ...Vector) Vector {
	out := v.Clone()
	for _, o := range others {
		for k, x := range o {
			out[k] = x
		}
	}
	return out
}

// #endregion vector

// #region spec
// Spec declares one expected feature and its valid range.
type Spec struct {
	Name    string   `yaml:"name" json:"name"`
	Group   Group    `yaml:"group" json:"group"`
	Min     float64  `yaml:"min" json:"min"`
	Max     float64  `yaml:"max" json:"max"`
	Default *float64 `yaml:"default,omitempty" json:"default,omitempty"`
	Count   bool     `yaml:"count,omitempty" json:"count,omitempty"` // non-negative integer semantics
}

// #endregion spec

// #region report
// Report describes how a vector deviated from its schema during normalization.
type Report struct {
	Expected int
	Present  int      // present and not equal to the declared default
	Missing  []string // sorted
	Clamped  []string // sorted
	Unknown  []string // names not in the schema, sorted
}

// Completeness is the fraction of expected features that carried information.
func (r Report) Completeness() float64 {
	if r.Expected == 0 {
		return 0
	}
	return float64(r.Present) / float64(r.Expected)
}

// OutOfRange reports whether any value had to be clamped.
func (r Report) OutOfRange() bool {
	return len(r.Clamped) > 0
}

// #endregion report
