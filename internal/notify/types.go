package notify

import (
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

// #region event
// Activity is a coping suggestion sent along with an intervention.
type Activity struct {
	Name        string `json:"activity"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Event announces an escalated assessment to downstream channels.
type Event struct {
	InterventionID string              `json:"interventionId"`
	AssessmentID   string              `json:"assessmentId"`
	UserID         string              `json:"userId"`
	Level          risk.Level          `json:"riskLevel"`
	Score          float64             `json:"riskScore"`
	Factors        []string            `json:"riskFactors"`
	Interventions  []risk.Intervention `json:"interventions"`
	Activities     []Activity          `json:"activities,omitempty"`
	At             time.Time           `json:"timestamp"`
}

// #endregion event

// #region activities
// CopingActivities returns the suggestions for a level. Only high and
// critical carry any.
func CopingActivities(level risk.Level) []Activity {
	switch level {
	case risk.LevelCritical:
		return []Activity{
			{"Deep Breathing Exercise", "5 minutes", "Try the 4-7-8 breathing technique to calm your nervous system"},
			{"Reach Out to Someone", "10 minutes", "Call or text a trusted friend or family member"},
			{"Crisis Support", "As needed", "988 Lifeline or Crisis Text Line (text HOME to 741741) - available 24/7"},
		}
	case risk.LevelHigh:
		return []Activity{
			{"Guided Meditation", "10 minutes", "Try a calming meditation to center yourself"},
			{"Gentle Walk", "15 minutes", "Get some fresh air and gentle movement"},
			{"Journaling", "10 minutes", "Write down your thoughts and feelings"},
		}
	default:
		return nil
	}
}

// EventFor builds the event for a logged intervention.
func EventFor(interventionID, assessmentID, userID string, a risk.Assessment) Event {
	return Event{
		InterventionID: interventionID,
		AssessmentID:   assessmentID,
		UserID:         userID,
		Level:          a.Level,
		Score:          a.Score,
		Factors:        a.Factors,
		Interventions:  a.Interventions,
		Activities:     CopingActivities(a.Level),
		At:             a.ComputedAt,
	}
}

// #endregion activities
