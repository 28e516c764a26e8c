package seed

import "github.com/danielpatrickdp/wellness-risk/internal/features"

// #region demo-user
// DemoUser describes the seeded account.
type DemoUser struct {
	UserID      string
	Email       string
	Name        string
	PetName     string
	Personality string
}

// DefaultDemoUser is the reference demo account.
func DefaultDemoUser() DemoUser {
	return DemoUser{
		UserID:      "demo_ml_user",
		Email:       "demo@mindmate.ai",
		Name:        "Alex Chen",
		PetName:     "Buddy",
		Personality: "gentle_guardian",
	}
}

// FirstName is used to personalise companion replies.
func (u DemoUser) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}

// #endregion demo-user

// #region chat-templates
// ChatTemplate is one scripted user message.
type ChatTemplate struct {
	Day       int
	Content   string
	Sentiment float64
}

// ChatTemplates trace a two-week slide from optimism to crisis language.
var ChatTemplates = []ChatTemplate{
	{1, "Hi Buddy! Had a good day at work today. Feeling pretty optimistic.", 0.7},
	{2, "Thanks for checking in. I'm doing alright, just the usual stress.", 0.3},
	{3, "Went for a walk today. Fresh air helped clear my mind.", 0.6},
	{4, "Feeling a bit anxious about the presentation tomorrow.", -0.2},
	{6, "Not sleeping well lately. Mind keeps racing at night.", -0.4},
	{7, "Everything feels overwhelming. Can't seem to catch a break.", -0.6},
	{8, "I don't know if I can handle this anymore. Feeling hopeless.", -0.8},
	{9, "What's the point? Nothing I do seems to matter.", -0.9},
	{10, "I feel so alone. Nobody understands what I'm going through.", -0.7},
	{11, "Can't get out of bed today. Everything hurts.", -0.8},
	{12, "Maybe everyone would be better off without me.", -0.95},
	{13, "I'm scared of these thoughts I'm having.", -0.85},
}

// #endregion chat-templates

// #region reference-features
// ReferenceFeatures is the 49-feature vector of the demo account.
func ReferenceFeatures() features.Vector {
	return features.Vector{
		// mood
		"mood_trend_7day":         -0.6,
		"mood_mean_7day":          3.2,
		"mood_std_7day":           1.4,
		"mood_min_7day":           2.1,
		"mood_max_7day":           4.8,
		"consecutive_low_days":    3,
		"mood_volatility":         0.78,
		"weekend_mood_diff":       -0.3,
		"morning_vs_evening_mood": -0.2,
		"mood_decline_rate":       -0.43,
		"mood_recovery_time":      0,
		"mood_baseline_deviation": -2.8,
		"seasonal_mood_factor":    0.1,
		"mood_consistency_score":  0.3,
		"mood_improvement_trend":  -0.8,
		"mood_stability_index":    0.25,

		// behavioral
		"daily_checkin_frequency":    0.85,
		"engagement_decline":         0.65,
		"response_time_trend":        1.2,
		"activity_completion_rate":   0.4,
		"late_night_usage_frequency": 4,
		"session_duration_trend":     -0.3,
		"interaction_depth_score":    0.6,
		"help_seeking_frequency":     0.2,
		"social_withdrawal_score":    0.8,
		"routine_disruption_score":   0.7,
		"sleep_pattern_irregularity": 0.75,
		"communication_frequency":    0.5,
		"goal_completion_rate":       0.3,
		"self_care_engagement":       0.25,
		"crisis_resource_usage":      0.1,
		"support_system_engagement":  0.2,
		"coping_strategy_usage":      0.3,
		"behavioral_consistency":     0.35,

		// sentiment
		"negative_sentiment_frequency": 0.75,
		"positive_sentiment_frequency": 0.15,
		"neutral_sentiment_frequency":  0.10,
		"sentiment_volatility":         0.85,
		"crisis_keywords":              2,
		"hopelessness_score":           0.82,
		"isolation_keywords":           3,
		"anxiety_indicators":           4,
		"depression_markers":           5,
		"suicidal_ideation_risk":       0.7,
		"emotional_numbness_score":     0.6,
		"anger_frustration_level":      0.4,
		"fear_worry_frequency":         0.8,
		"guilt_shame_indicators":       0.5,
		"sentiment_trend_7day":         -0.7,
	}
}

// #endregion reference-features
