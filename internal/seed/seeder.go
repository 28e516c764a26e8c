package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/wellness-risk/internal/classifier"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// Method tags assessments written by the seeder.
const Method = "seeded_reference"

// #region config
// Config controls what the seeder writes.
type Config struct {
	User DemoUser
	Days int   // mood history length
	Seed int64 // mood jitter source
}

// DefaultConfig seeds the reference demo account with 14 days of history.
func DefaultConfig() Config {
	return Config{User: DefaultDemoUser(), Days: 14, Seed: 42}
}

// #endregion config

// #region seeder
// Writer is the persistence the seeder needs.
type Writer interface {
	PutBatch(ctx context.Context, recs []store.Record) error
	LogIntervention(ctx context.Context, rec store.InterventionRecord) (string, error)
}

// Summary reports what a seeding run wrote.
type Summary struct {
	UserID         string
	Records        int
	Moods          int
	Chats          int
	Features       int
	Level          risk.Level
	Score          float64
	Factors        int
	InterventionID string
}

// Seeder writes a demo user.
type Seeder struct {
	w      Writer
	cls    *classifier.Classifier
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Seeder. logger may be nil.
func New(w Writer, cls *classifier.Classifier, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{w: w, cls: cls, logger: logger.Named("seed"), now: time.Now}
}

// Run writes the profile, mood log, chat transcript, feature vector and the
// resulting assessment in one batch.
func (s *Seeder) Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.User.UserID == "" {
		return Summary{}, fmt.Errorf("seed: user id is required")
	}
	if cfg.Days <= 0 {
		cfg.Days = 14
	}
	now := s.now().UTC()
	start := now.AddDate(0, 0, -cfg.Days)

	var recs []store.Record
	recs = append(recs, store.ProfileRecord(profile(cfg.User, start, now)))

	moods := moodHistory(cfg, start)
	for _, m := range moods {
		recs = append(recs, store.MoodRecord(m))
	}

	chats := s.transcript(cfg.User, start)
	for _, c := range chats {
		recs = append(recs, store.ChatRecord(c))
	}

	vec := ReferenceFeatures()
	recs = append(recs, store.FeaturesRecord(store.FeatureRecord{UserID: cfg.User.UserID, Features: vec, UpdatedAt: now}))

	a := s.cls.WithClock(func() time.Time { return now }).Classify(vec)
	rec := store.AssessmentRecord{
		ID:                    uuid.NewString(),
		UserID:                cfg.User.UserID,
		Method:                Method,
		InterventionTriggered: a.Level.Escalates(),
		Assessment:            a,
	}
	recs = append(recs, store.AssessmentRecordFor(rec))

	if err := s.w.PutBatch(ctx, recs); err != nil {
		return Summary{}, fmt.Errorf("seed %s: %w", cfg.User.UserID, err)
	}

	sum := Summary{
		UserID:   cfg.User.UserID,
		Records:  len(recs),
		Moods:    len(moods),
		Chats:    len(chats),
		Features: len(vec),
		Level:    a.Level,
		Score:    a.Score,
		Factors:  len(a.Factors),
	}
	if rec.InterventionTriggered {
		iv := store.InterventionRecord{
			UserID:    cfg.User.UserID,
			Level:     a.Level,
			Score:     a.Score,
			Factors:   a.Factors,
			CreatedAt: now,
		}
		for _, x := range a.Interventions {
			iv.Actions = append(iv.Actions, x.Action)
		}
		id, err := s.w.LogIntervention(ctx, iv)
		if err != nil {
			return Summary{}, fmt.Errorf("seed %s: %w", cfg.User.UserID, err)
		}
		sum.InterventionID = id
	}

	s.logger.Info("demo user seeded",
		zap.String("user", sum.UserID),
		zap.Int("records", sum.Records),
		zap.String("level", string(sum.Level)),
		zap.Float64("score", sum.Score),
	)
	return sum, nil
}

// #endregion seeder

// #region generators
func profile(u DemoUser, created, now time.Time) store.Profile {
	return store.Profile{
		UserID:             u.UserID,
		Email:              u.Email,
		Name:               u.Name,
		PetName:            u.PetName,
		Personality:        u.Personality,
		CreatedAt:          created,
		LastActive:         now,
		OnboardingComplete: true,
		Preferences:        map[string]bool{"notifications": true, "dailyReminders": true, "crisisAlerts": true},
	}
}

// moodHistory declines through three bands (around 7, 5 and 3) with ±1 jitter.
func moodHistory(cfg Config, start time.Time) []store.MoodEntry {
	rng := rand.New(rand.NewSource(cfg.Seed))
	out := make([]store.MoodEntry, 0, cfg.Days)
	for i := 0; i < cfg.Days; i++ {
		base := 3.0
		switch {
		case i < cfg.Days*5/14:
			base = 7
		case i < cfg.Days*10/14:
			base = 5
		}
		mood := math.Max(1, math.Min(10, base+rng.Float64()*2-1))
		ts := start.AddDate(0, 0, i)

		notes := "Doing okay"
		switch {
		case i > 10:
			notes = "Feeling overwhelmed lately"
		case i > 7:
			notes = "Struggling a bit"
		}
		out = append(out, store.MoodEntry{
			UserID:    cfg.User.UserID,
			Date:      ts.Format("2006-01-02"),
			Mood:      math.Round(mood*10) / 10,
			Notes:     notes,
			Timestamp: ts,
		})
	}
	return out
}

// transcript pairs every scripted message with a companion reply one second
// later, picked from the classifier's sentiment table.
func (s *Seeder) transcript(u DemoUser, start time.Time) []store.ChatMessage {
	cfg := s.cls.Config()
	out := make([]store.ChatMessage, 0, 2*len(ChatTemplates))
	for _, tpl := range ChatTemplates {
		at := start.AddDate(0, 0, tpl.Day)
		sentiment := tpl.Sentiment
		out = append(out,
			store.ChatMessage{
				UserID:    u.UserID,
				MessageID: uuid.NewString(),
				Content:   tpl.Content,
				Sender:    "user",
				Timestamp: at,
				Sentiment: &sentiment,
			},
			store.ChatMessage{
				UserID:    u.UserID,
				MessageID: uuid.NewString(),
				Content:   cfg.SentimentMessage(tpl.Sentiment).Reply(u.FirstName()),
				Sender:    "ai",
				Timestamp: at.Add(time.Second),
			},
		)
	}
	return out
}

// #endregion generators
