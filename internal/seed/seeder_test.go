package seed

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/wellness-risk/internal/classifier"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

func tempDB(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSeeder(t *testing.T, w Writer) *Seeder {
	t.Helper()
	c, err := classifier.New(classifier.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return New(w, c, nil)
}

func TestRunWritesDemoUser(t *testing.T) {
	st := tempDB(t)
	ctx := context.Background()

	sum, err := newSeeder(t, st).Run(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Records != 1+14+24+1+1 {
		t.Errorf("records = %d", sum.Records)
	}
	if sum.Level != risk.LevelHigh || sum.InterventionID == "" {
		t.Errorf("summary = %+v", sum)
	}

	got, err := Verify(ctx, st, "demo_ml_user")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := Check{Name: "Alex Chen", Moods: 14, Chats: 24, Features: 49, Level: risk.LevelHigh, Score: sum.Score, Triggered: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verify (-want +got):\n%s", diff)
	}

	ivs, err := st.ListInterventions(ctx, "demo_ml_user")
	if err != nil || len(ivs) != 1 {
		t.Fatalf("interventions = %v, err %v", ivs, err)
	}
}

func TestTranscriptRepliesFollowSentiment(t *testing.T) {
	st := tempDB(t)
	ctx := context.Background()
	if _, err := newSeeder(t, st).Run(ctx, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	chats, err := st.ListChats(ctx, "demo_ml_user", 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(chats); i += 2 {
		u, ai := chats[i], chats[i+1]
		if u.Sender != "user" || ai.Sender != "ai" || u.Sentiment == nil {
			t.Fatalf("pair %d out of order: %s/%s", i/2, u.Sender, ai.Sender)
		}
		if strings.Contains(ai.Content, "{name}") {
			t.Errorf("unrendered reply %q", ai.Content)
		}
		if *u.Sentiment < -0.8 && !strings.Contains(ai.Content, "I'm really concerned about you, Alex") {
			t.Errorf("crisis message %q got reply %q", u.Content, ai.Content)
		}
		if *u.Sentiment >= 0.5 && !strings.Contains(ai.Content, "glad to hear") {
			t.Errorf("positive message %q got reply %q", u.Content, ai.Content)
		}
	}
}

func TestMoodHistoryDeterministicBands(t *testing.T) {
	cfg := DefaultConfig()
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	a, b := moodHistory(cfg, start), moodHistory(cfg, start)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed differs:\n%s", diff)
	}
	for i, m := range a {
		lo, hi := 2.0, 4.0
		switch {
		case i < 5:
			lo, hi = 6, 8
		case i < 10:
			lo, hi = 4, 6
		}
		if m.Mood < lo || m.Mood > hi {
			t.Errorf("day %d mood %.1f outside [%.0f,%.0f]", i, m.Mood, lo, hi)
		}
	}
	if a[0].Date != "2026-01-01" || a[13].Date != "2026-01-14" {
		t.Errorf("dates %s..%s", a[0].Date, a[13].Date)
	}
}

type brokenWriter struct{}

func (brokenWriter) PutBatch(ctx context.Context, recs []store.Record) error {
	return errors.New("read-only")
}

func (brokenWriter) LogIntervention(ctx context.Context, rec store.InterventionRecord) (string, error) {
	return "", errors.New("read-only")
}

func TestRunErrors(t *testing.T) {
	s := newSeeder(t, brokenWriter{})
	if _, err := s.Run(context.Background(), DefaultConfig()); err == nil {
		t.Error("expected write error")
	}
	if _, err := s.Run(context.Background(), Config{}); err == nil {
		t.Error("expected missing user error")
	}
	if _, err := Verify(context.Background(), tempDB(t), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Verify ghost = %v", err)
	}
}

func TestFirstName(t *testing.T) {
	if got := DefaultDemoUser().FirstName(); got != "Alex" {
		t.Errorf("FirstName = %q", got)
	}
	if got := (DemoUser{Name: "Sam"}).FirstName(); got != "Sam" {
		t.Errorf("FirstName = %q", got)
	}
}
