package risk

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"minimal":   LevelMinimal,
		"LOW":       LevelLow,
		" Moderate": LevelModerate,
		"HIGH":      LevelHigh,
		"critical":  LevelCritical,
		"unknown":   LevelUnknown,
		"":          LevelUnknown,
		"severe":    LevelUnknown,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSeverityMonotonic(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		if Levels[i].Severity() <= Levels[i-1].Severity() {
			t.Fatalf("%s should rank above %s", Levels[i], Levels[i-1])
		}
	}
	if LevelUnknown.Severity() >= LevelMinimal.Severity() {
		t.Fatal("unknown should rank below minimal")
	}
}

func TestEscalates(t *testing.T) {
	for _, l := range Levels {
		want := l == LevelHigh || l == LevelCritical
		if l.Escalates() != want {
			t.Errorf("%s.Escalates() = %v", l, !want)
		}
	}
}

func TestSortInterventions(t *testing.T) {
	in := []Intervention{
		{Type: InterventionTherapeutic, Action: "coping_strategies"},
		{Type: InterventionProactive, Action: "wellness_check"},
		{Type: InterventionImmediate, Action: "crisis_resources"},
		{Type: InterventionProactive, Action: "daily_checkin"},
	}
	got := SortInterventions(in)
	want := []Intervention{
		{Type: InterventionImmediate, Action: "crisis_resources"},
		{Type: InterventionProactive, Action: "wellness_check"},
		{Type: InterventionProactive, Action: "daily_checkin"},
		{Type: InterventionTherapeutic, Action: "coping_strategies"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if in[0].Type != InterventionTherapeutic {
		t.Fatal("input slice should not be reordered")
	}
}

func TestParseInterventionType(t *testing.T) {
	if _, err := ParseInterventionType("Immediate"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseInterventionType("urgent"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
