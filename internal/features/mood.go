package features

import (
	"context"
	"math"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// #region mood-config
// MoodConfig holds the windows and cutoffs used to derive mood features.
type MoodConfig struct {
	LookbackDays  int     // mood log window
	RecentEntries int     // entries in the "7 day" statistics
	LowThreshold  float64 // mood <= this counts as a low day
}

// DefaultMoodConfig returns the reference windows.
func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		LookbackDays:  30,
		RecentEntries: 7,
		LowThreshold:  4,
	}
}

// #endregion mood-config

// #region mood-producer
// MoodReader is the slice of the store the MoodProducer needs.
type MoodReader interface {
	ListMoods(ctx context.Context, userID string, since time.Time) ([]store.MoodEntry, error)
}

// MoodProducer derives mood-group features from the raw mood log.
type MoodProducer struct {
	reader MoodReader
	config MoodConfig
	now    func() time.Time
}

// NewMoodProducer creates a MoodProducer.
func NewMoodProducer(reader MoodReader, config MoodConfig) *MoodProducer {
	return &MoodProducer{reader: reader, config: config, now: time.Now}
}

// Name implements Producer.
func (p *MoodProducer) Name() string { return "mood_log" }

// Produce implements Producer. No entries yields an empty vector.
func (p *MoodProducer) Produce(ctx context.Context, userID string) (Vector, error) {
	since := p.now().AddDate(0, 0, -p.config.LookbackDays)
	entries, err := p.reader.ListMoods(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	moods := make([]float64, len(entries))
	weekend := make([]bool, len(entries))
	for i, e := range entries {
		moods[i] = e.Mood
		wd := e.Timestamp.Weekday()
		weekend[i] = wd == time.Saturday || wd == time.Sunday
	}
	return MoodFeatures(moods, weekend, p.config), nil
}

// #endregion mood-producer

// #region mood-features
// MoodFeatures computes mood features from chronologically ordered scores.
// weekend flags each entry; it may be nil.
func MoodFeatures(moods []float64, weekend []bool, cfg MoodConfig) Vector {
	if len(moods) == 0 {
		return Vector{}
	}
	recent := moods
	if len(recent) > cfg.RecentEntries {
		recent = recent[len(recent)-cfg.RecentEntries:]
	}

	trend := slope(recent)
	decline := 0.0
	if trend < 0 {
		decline = -trend
	}
	mean, std := meanStd(recent)
	lo, hi := minMax(recent)

	return Vector{
		"mood_trend_7day":      trend,
		"mood_mean_7day":       mean,
		"mood_std_7day":        std,
		"mood_min_7day":        lo,
		"mood_max_7day":        hi,
		"mood_volatility":      volatility(moods),
		"consecutive_low_days": float64(longestRun(moods, cfg.LowThreshold)),
		"mood_decline_rate":    decline,
		"weekend_mood_diff":    weekendDiff(moods, weekend),
	}
}

// slope is the least-squares slope of y over its index.
func slope(y []float64) float64 {
	n := float64(len(y))
	if len(y) < 2 {
		return 0
	}
	xMean := (n - 1) / 2
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= n
	var num, den float64
	for i, v := range y {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// meanStd returns the mean and population standard deviation.
func meanStd(y []float64) (float64, float64) {
	var sum float64
	for _, v := range y {
		sum += v
	}
	mean := sum / float64(len(y))
	if len(y) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range y {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(y)))
}

func minMax(y []float64) (float64, float64) {
	lo, hi := y[0], y[0]
	for _, v := range y[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// volatility is the mean absolute day-over-day change.
func volatility(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(y); i++ {
		total += math.Abs(y[i] - y[i-1])
	}
	return total / float64(len(y)-1)
}

// longestRun counts the longest streak of entries at or below threshold.
func longestRun(y []float64, threshold float64) int {
	best, cur := 0, 0
	for _, v := range y {
		if v <= threshold {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

// weekendDiff is weekend mean minus weekday mean, 0 if either side is empty.
func weekendDiff(y []float64, weekend []bool) float64 {
	if len(weekend) != len(y) {
		return 0
	}
	var we, wd []float64
	for i, v := range y {
		if weekend[i] {
			we = append(we, v)
		} else {
			wd = append(wd, v)
		}
	}
	if len(we) == 0 || len(wd) == 0 {
		return 0
	}
	weMean, _ := meanStd(we)
	wdMean, _ := meanStd(wd)
	return weMean - wdMean
}

// #endregion mood-features
