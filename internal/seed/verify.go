package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// Reader is the read side used to check a seeded account.
type Reader interface {
	GetProfile(ctx context.Context, userID string) (store.Profile, error)
	ListMoods(ctx context.Context, userID string, since time.Time) ([]store.MoodEntry, error)
	ListChats(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error)
	GetFeatures(ctx context.Context, userID string) (store.FeatureRecord, error)
	LatestAssessment(ctx context.Context, userID string) (store.AssessmentRecord, error)
}

// Check is a read-back of a seeded account.
type Check struct {
	Name      string
	Moods     int
	Chats     int
	Features  int
	Level     risk.Level
	Score     float64
	Triggered bool
}

// Verify reads back everything Run writes and fails on the first missing part.
func Verify(ctx context.Context, r Reader, userID string) (Check, error) {
	p, err := r.GetProfile(ctx, userID)
	if err != nil {
		return Check{}, fmt.Errorf("verify %s: profile: %w", userID, err)
	}
	moods, err := r.ListMoods(ctx, userID, time.Time{})
	if err != nil {
		return Check{}, fmt.Errorf("verify %s: moods: %w", userID, err)
	}
	chats, err := r.ListChats(ctx, userID, 0)
	if err != nil {
		return Check{}, fmt.Errorf("verify %s: chats: %w", userID, err)
	}
	f, err := r.GetFeatures(ctx, userID)
	if err != nil {
		return Check{}, fmt.Errorf("verify %s: features: %w", userID, err)
	}
	a, err := r.LatestAssessment(ctx, userID)
	if err != nil {
		return Check{}, fmt.Errorf("verify %s: assessment: %w", userID, err)
	}
	return Check{
		Name:      p.Name,
		Moods:     len(moods),
		Chats:     len(chats),
		Features:  len(f.Features),
		Level:     a.Assessment.Level,
		Score:     a.Assessment.Score,
		Triggered: a.InterventionTriggered,
	}, nil
}
