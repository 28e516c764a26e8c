package store

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

// ErrNotFound is returned when no record matches a key.
var ErrNotFound = errors.New("record not found")

// #region record-type
// RecordType is the second component of a record key.
type RecordType string

const (
	TypeProfile    RecordType = "PROFILE"
	TypeMood       RecordType = "MOOD"
	TypeChat       RecordType = "CHAT"
	TypeFeatures   RecordType = "ML_FEATURES"
	TypeAssessment RecordType = "RISK_ASSESSMENT"
)

// CurrentKey is the sort key of singleton records (features, profile).
const CurrentKey = "CURRENT"

// sortLayout is fixed-width so sort keys order lexically by time.
const sortLayout = "2006-01-02T15:04:05.000000000Z"

// interventionTTL matches the retention of the intervention log.
const interventionTTL = 90 * 24 * time.Hour

// #endregion record-type

// #region key
// Key addresses one record: (user, record-type, optional ordering key).
type Key struct {
	UserID  string
	Type    RecordType
	SortKey string
}

// String renders the key in USER#id/TYPE#sort form.
func (k Key) String() string {
	s := "USER#" + k.UserID + "/" + string(k.Type)
	if k.SortKey != "" {
		s += "#" + k.SortKey
	}
	return s
}

// Record is a key plus a JSON-serializable payload.
type Record struct {
	Key     Key
	Payload any
}

// #endregion key

// #region payloads
// Profile is the per-user companion profile.
type Profile struct {
	UserID             string          `json:"userId"`
	Email              string          `json:"email,omitempty"`
	Name               string          `json:"name"`
	PetName            string          `json:"petName"`
	Personality        string          `json:"personality"`
	CreatedAt          time.Time       `json:"createdAt"`
	LastActive         time.Time       `json:"lastActive"`
	OnboardingComplete bool            `json:"onboardingComplete"`
	Preferences        map[string]bool `json:"preferences,omitempty"`
}

// MoodEntry is one daily mood log on a 1–10 scale.
type MoodEntry struct {
	UserID    string    `json:"userId"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Mood      float64   `json:"mood"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessage is one transcript line from the user or the companion.
type ChatMessage struct {
	UserID    string    `json:"userId"`
	MessageID string    `json:"messageId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"` // "user" | "ai"
	Timestamp time.Time `json:"timestamp"`
	Sentiment *float64  `json:"sentiment,omitempty"`
}

// FeatureRecord is the latest derived feature vector for a user.
type FeatureRecord struct {
	UserID    string             `json:"userId"`
	Features  map[string]float64 `json:"features"`
	UpdatedAt time.Time          `json:"lastUpdated"`
}

// AssessmentRecord is a persisted classifier output.
type AssessmentRecord struct {
	ID                    string          `json:"assessmentId"`
	UserID                string          `json:"userId"`
	Method                string          `json:"method"`
	InterventionTriggered bool            `json:"interventionTriggered"`
	Assessment            risk.Assessment `json:"assessment"`
}

// InterventionRecord is one row of the intervention log.
type InterventionRecord struct {
	ID        string
	UserID    string
	Level     risk.Level
	Score     float64
	Factors   []string
	Actions   []string
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// #endregion payloads
