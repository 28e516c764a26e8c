package features

import (
	"fmt"
	"math"
	"sort"
)

// #region schema
// Schema is the configured set of expected features.
type Schema []Spec

// Names returns the declared feature names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, sp := range s {
		names[i] = sp.Name
	}
	return names
}

// Lookup finds the spec for name.
func (s Schema) Lookup(name string) (Spec, bool) {
	for _, sp := range s {
		if sp.Name == name {
			return sp, true
		}
	}
	return Spec{}, false
}

// CountByGroup tallies declared features per group.
func (s Schema) CountByGroup() map[Group]int {
	out := make(map[Group]int)
	for _, sp := range s {
		out[sp.Group]++
	}
	return out
}

// Validate checks for duplicate names and inverted ranges.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, sp := range s {
		if sp.Name == "" {
			return fmt.Errorf("schema: empty feature name")
		}
		if _, dup := seen[sp.Name]; dup {
			return fmt.Errorf("schema: duplicate feature %q", sp.Name)
		}
		seen[sp.Name] = struct{}{}
		if sp.Min > sp.Max {
			return fmt.Errorf("schema: feature %q has min %.4f > max %.4f", sp.Name, sp.Min, sp.Max)
		}
		if sp.Count && sp.Min < 0 {
			return fmt.Errorf("schema: count feature %q must have min >= 0", sp.Name)
		}
	}
	return nil
}

// #endregion schema

// #region normalize
// Normalize clamps every declared feature into its range and reports what was
// missing, clamped, or undeclared. Count features are truncated to integers.
// Undeclared names pass through untouched. The input is not modified.
func (s Schema) Normalize(v Vector) (Vector, Report) {
	out := make(Vector, len(v))
	rep := Report{Expected: len(s)}
	declared := make(map[string]struct{}, len(s))

	for _, sp := range s {
		declared[sp.Name] = struct{}{}
		x, ok := v.Get(sp.Name)
		if !ok {
			rep.Missing = append(rep.Missing, sp.Name)
			continue
		}
		if sp.Count {
			x = math.Trunc(x)
		}
		clamped := math.Min(math.Max(x, sp.Min), sp.Max)
		if clamped != x || math.IsInf(x, 0) {
			rep.Clamped = append(rep.Clamped, sp.Name)
		}
		out[sp.Name] = clamped
		if sp.Default == nil || *sp.Default != clamped {
			rep.Present++
		}
	}

	for name, x := range v {
		if _, ok := declared[name]; ok {
			continue
		}
		rep.Unknown = append(rep.Unknown, name)
		out[name] = x
	}

	sort.Strings(rep.Missing)
	sort.Strings(rep.Clamped)
	sort.Strings(rep.Unknown)
	return out, rep
}

// #endregion normalize
