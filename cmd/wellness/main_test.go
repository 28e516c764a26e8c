package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("WELLNESS_TEST_KEY", "")
	if got := envOr("WELLNESS_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr unset = %q", got)
	}
	t.Setenv("WELLNESS_TEST_KEY", "set")
	if got := envOr("WELLNESS_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("envOr set = %q", got)
	}
}

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("wellness %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestClassifyReference(t *testing.T) {
	classifyReference, classifyExplain = false, false
	out := execute(t, "", "classify", "--reference")
	var a risk.Assessment
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if a.Level != risk.LevelHigh {
		t.Errorf("level = %s", a.Level)
	}
}

func TestClassifyStdinExplain(t *testing.T) {
	classifyReference, classifyExplain = false, false
	out := execute(t, `{"hopelessness_score": 0.9, "made_up": 1}`, "classify", "--reference=false", "--explain", "-f", "-")
	if !strings.Contains(out, `"riskLevel": "unknown"`) {
		t.Errorf("sparse vector should be unknown:\n%s", out)
	}
	if !strings.Contains(out, "unknown: [made_up]") {
		t.Errorf("explain missing unknown names:\n%s", out)
	}
}

func TestSeedVerify(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "", "seed", "--db", filepath.Join(dir, "w.db"), "--verify")
	for _, want := range []string{"Seeded demo_ml_user", "Risk: high", "Verified Alex Chen: 14 moods, 24 chats, 49 features"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectAfterSeed(t *testing.T) {
	db := filepath.Join(t.TempDir(), "w.db")
	execute(t, "", "seed", "--db", db)

	inspectJSON, inspectID = false, ""
	out := execute(t, "", "inspect", "--db", db, "--user", "demo_ml_user")
	for _, want := range []string{"high", "Group sub-scores", "mood", "Interventions:"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}

	out = execute(t, "", "inspect", "--db", db, "--json")
	var res inspectOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(res.History) != 1 || res.History[0].Level != "high" {
		t.Errorf("history = %+v", res.History)
	}
	inspectJSON = false
}
