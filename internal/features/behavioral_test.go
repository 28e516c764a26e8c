package features

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

func at(base time.Time, hours float64) time.Time {
	return base.Add(time.Duration(hours * float64(time.Hour)))
}

func TestLateNightAndHelpSeeking(t *testing.T) {
	base := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	events := []Interaction{
		{At: at(base, 23.5), Text: "I NEED HELP tonight"},
		{At: at(base, 2), Text: "fine"},
		{At: at(base, 10), Text: "can't cope with work"},
		{At: at(base, 22.98), Text: ""},
	}
	v := BehavioralFeatures(events, DefaultBehavioralConfig())

	if v["late_night_usage_frequency"] != 2 {
		t.Fatalf("expected 2 late-night interactions, got %f", v["late_night_usage_frequency"])
	}
	if v["help_seeking_frequency"] != 0.5 {
		t.Fatalf("expected help seeking 0.5, got %f", v["help_seeking_frequency"])
	}
	if math.Abs(v["daily_checkin_frequency"]-1.0/30) > 1e-9 {
		t.Fatalf("expected one active day of 30, got %f", v["daily_checkin_frequency"])
	}
	if _, ok := v["engagement_decline"]; ok {
		t.Fatal("engagement_decline needs at least 7 interactions")
	}
}

func TestEngagementDeclineAndConsistency(t *testing.T) {
	day := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	var events []Interaction
	for d, n := range []int{3, 2, 2} {
		for i := 0; i < n; i++ {
			events = append(events, Interaction{At: day.AddDate(0, 0, d).Add(time.Duration(i) * time.Hour)})
		}
	}
	v := BehavioralFeatures(events, DefaultBehavioralConfig())

	// daily counts 3,2,2: least-squares slope -0.5, population std sqrt(2/9)
	if math.Abs(v["engagement_decline"]-0.5) > 1e-9 {
		t.Fatalf("engagement_decline = %f, want 0.5", v["engagement_decline"])
	}
	wantConsistency := 1 / (1 + math.Sqrt(2.0/9))
	if math.Abs(v["behavioral_consistency"]-wantConsistency) > 1e-9 {
		t.Fatalf("behavioral_consistency = %f, want %f", v["behavioral_consistency"], wantConsistency)
	}
	if math.Abs(v["daily_checkin_frequency"]-0.1) > 1e-9 {
		t.Fatalf("expected 3 active days of 30, got %f", v["daily_checkin_frequency"])
	}
}

func TestResponseTimeTrend(t *testing.T) {
	base := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		hours []float64
		want  float64
		set   bool
	}{
		{[]float64{0, 1}, 0, false},
		{[]float64{0, 1, 3, 6}, 1, true},    // gaps 1,2,3
		{[]float64{0, 6, 10, 12}, -2, true}, // gaps 6,4,2
		{[]float64{0, 1, 20}, 5, true},      // gaps 1,19 clamp to 5
	}
	for _, c := range cases {
		var events []Interaction
		// shuffled input order must not matter
		for i := len(c.hours) - 1; i >= 0; i-- {
			events = append(events, Interaction{At: at(base, c.hours[i])})
		}
		got, ok := BehavioralFeatures(events, DefaultBehavioralConfig())["response_time_trend"]
		if ok != c.set {
			t.Fatalf("hours %v: response_time_trend present=%v, want %v", c.hours, ok, c.set)
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("hours %v: response_time_trend = %f, want %f", c.hours, got, c.want)
		}
	}
}

type staticHistory struct {
	moods []store.MoodEntry
	chats []store.ChatMessage
}

func (s staticHistory) ListMoods(_ context.Context, _ string, _ time.Time) ([]store.MoodEntry, error) {
	return s.moods, nil
}

func (s staticHistory) ListChats(_ context.Context, _ string, _ int) ([]store.ChatMessage, error) {
	return s.chats, nil
}

func TestBehavioralProducer(t *testing.T) {
	now := time.Date(2026, 10, 10, 12, 0, 0, 0, time.UTC)
	history := staticHistory{
		moods: []store.MoodEntry{
			{Mood: 4, Notes: "struggling today", Timestamp: now.Add(-48 * time.Hour)},
		},
		chats: []store.ChatMessage{
			{Sender: "user", Content: "old message, need help", Timestamp: now.AddDate(0, 0, -40)},
			{Sender: "user", Content: "hello", Timestamp: now.Add(-24 * time.Hour)},
			{Sender: "ai", Content: "how do i help you?", Timestamp: now.Add(-23 * time.Hour)},
			{Sender: "user", Content: "any advice?", Timestamp: now.Add(-time.Hour)},
		},
	}
	p := NewBehavioralProducer(history, DefaultBehavioralConfig())
	p.now = func() time.Time { return now }

	v, err := p.Produce(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	// mood note and two recent user chats; ai reply and stale chat dropped
	if math.Abs(v["help_seeking_frequency"]-2.0/3) > 1e-9 {
		t.Fatalf("help_seeking_frequency = %f, want 2/3", v["help_seeking_frequency"])
	}
	if math.Abs(v["daily_checkin_frequency"]-0.1) > 1e-9 {
		t.Fatalf("daily_checkin_frequency = %f, want 0.1", v["daily_checkin_frequency"])
	}
	if p.Name() != "behavioral_log" {
		t.Fatalf("unexpected name %s", p.Name())
	}

	empty := NewBehavioralProducer(staticHistory{}, DefaultBehavioralConfig())
	v, err = empty.Produce(context.Background(), "u1")
	if err != nil || len(v) != 0 {
		t.Fatalf("no history should yield an empty vector, got %v, %v", v, err)
	}
}
