package features

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// #region behavioral-config
// BehavioralConfig holds the windows and cutoffs used to derive behavioral
// features from check-ins and chat messages.
type BehavioralConfig struct {
	LookbackDays    int      // interaction window; also the frequency denominator
	MinTrend        int      // interactions needed before trends are computed
	LateNightStart  int      // hour (UTC) at which late night begins
	LateNightEnd    int      // hour (UTC) at which late night ends
	HelpPhrases     []string // lowercase substrings that mark help seeking
	ConsistencyUnit float64  // daily-count std at which consistency halves
}

// DefaultBehavioralConfig returns the reference windows.
func DefaultBehavioralConfig() BehavioralConfig {
	return BehavioralConfig{
		LookbackDays:   30,
		MinTrend:       7,
		LateNightStart: 23,
		LateNightEnd:   5,
		HelpPhrases: []string{
			"help", "need help", "what should i do", "i don't know",
			"advice", "suggest", "recommendation", "what can i",
			"how do i", "struggling", "can't cope", "too much",
		},
		ConsistencyUnit: 1,
	}
}

// #endregion behavioral-config

// #region behavioral-producer
// BehavioralReader is the slice of the store the BehavioralProducer needs.
type BehavioralReader interface {
	ListMoods(ctx context.Context, userID string, since time.Time) ([]store.MoodEntry, error)
	ListChats(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error)
}

// Interaction is one user-initiated event: a mood check-in or a chat message.
type Interaction struct {
	At   time.Time
	Text string
}

// BehavioralProducer derives behavioral-group features from interaction history.
type BehavioralProducer struct {
	reader BehavioralReader
	config BehavioralConfig
	now    func() time.Time
}

// NewBehavioralProducer creates a BehavioralProducer.
func NewBehavioralProducer(reader BehavioralReader, config BehavioralConfig) *BehavioralProducer {
	return &BehavioralProducer{reader: reader, config: config, now: time.Now}
}

// Name implements Producer.
func (p *BehavioralProducer) Name() string { return "behavioral_log" }

// Produce implements Producer. No interactions in the window yields an empty
// vector so stored values are kept.
func (p *BehavioralProducer) Produce(ctx context.Context, userID string) (Vector, error) {
	since := p.now().AddDate(0, 0, -p.config.LookbackDays)
	moods, err := p.reader.ListMoods(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	chats, err := p.reader.ListChats(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	var events []Interaction
	for _, m := range moods {
		events = append(events, Interaction{At: m.Timestamp, Text: m.Notes})
	}
	for _, c := range chats {
		if c.Sender != "user" || c.Timestamp.Before(since) {
			continue
		}
		events = append(events, Interaction{At: c.Timestamp, Text: c.Content})
	}
	return BehavioralFeatures(events, p.config), nil
}

// #endregion behavioral-producer

// #region behavioral-features
// BehavioralFeatures computes behavioral features from interactions in any order.
func BehavioralFeatures(events []Interaction, cfg BehavioralConfig) Vector {
	if len(events) == 0 {
		return Vector{}
	}
	sorted := make([]Interaction, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	counts := dailyCounts(sorted)
	days := float64(cfg.LookbackDays)
	if days <= 0 {
		days = 1
	}

	v := Vector{
		"daily_checkin_frequency":    math.Min(1, float64(len(counts))/days),
		"late_night_usage_frequency": float64(lateNight(sorted, cfg.LateNightStart, cfg.LateNightEnd)),
		"help_seeking_frequency":     helpSeeking(sorted, cfg.HelpPhrases),
	}
	if len(sorted) >= cfg.MinTrend && len(counts) >= 2 {
		v["engagement_decline"] = clampRange(-slope(counts), -1, 1)
		_, std := meanStd(counts)
		unit := cfg.ConsistencyUnit
		if unit <= 0 {
			unit = 1
		}
		v["behavioral_consistency"] = 1 / (1 + std/unit)
	}
	if len(sorted) >= 3 {
		v["response_time_trend"] = clampRange(slope(gapsHours(sorted)), -5, 5)
	}
	return v
}

// dailyCounts returns interactions per UTC calendar day, oldest day first.
// Days without interactions are skipped.
func dailyCounts(sorted []Interaction) []float64 {
	var out []float64
	var last string
	for _, e := range sorted {
		key := e.At.UTC().Format("2006-01-02")
		if key != last {
			out = append(out, 0)
			last = key
		}
		out[len(out)-1]++
	}
	return out
}

// gapsHours is the time between consecutive interactions.
func gapsHours(sorted []Interaction) []float64 {
	out := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		out = append(out, sorted[i].At.Sub(sorted[i-1].At).Hours())
	}
	return out
}

// lateNight counts interactions at or after start or before end (UTC hours).
func lateNight(events []Interaction, start, end int) int {
	n := 0
	for _, e := range events {
		if h := e.At.UTC().Hour(); h >= start || h < end {
			n++
		}
	}
	return n
}

// helpSeeking is the fraction of interactions containing any help phrase.
func helpSeeking(events []Interaction, phrases []string) float64 {
	hits := 0
	for _, e := range events {
		text := strings.ToLower(e.Text)
		for _, p := range phrases {
			if strings.Contains(text, p) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(events))
}

func clampRange(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// #endregion behavioral-features
