package risk

import "time"

// #region level
// Level is the discretized output of the classifier.
type Level string

const (
	LevelMinimal  Level = "minimal"
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
	LevelUnknown  Level = "unknown" // insufficient data or unrecognized input
)

// Levels lists the scored levels from least to most severe.
var Levels = []Level{LevelMinimal, LevelLow, LevelModerate, LevelHigh, LevelCritical}

// #endregion level

// #region intervention-type
// InterventionType tiers interventions by urgency.
type InterventionType string

const (
	InterventionImmediate   InterventionType = "immediate"
	InterventionProactive   InterventionType = "proactive"
	InterventionTherapeutic InterventionType = "therapeutic"
)

// #endregion intervention-type

// #region intervention
// Intervention is a recommended system action tied to a risk level.
type Intervention struct {
	Type    InterventionType `json:"type" yaml:"type"`
	Action  string           `json:"action" yaml:"action"`
	Message string           `json:"message" yaml:"message"`
}

// #endregion intervention

// #region assessment
// Assessment is one immutable classifier output.
type Assessment struct {
	Score            float64        `json:"riskScore"`
	Level            Level          `json:"riskLevel"`
	Confidence       float64        `json:"confidence"`
	Factors          []string       `json:"riskFactors"`
	Interventions    []Intervention `json:"interventions"`
	ComputedAt       time.Time      `json:"computedAt"`
	LowConfidence    bool           `json:"lowConfidence,omitempty"`
	InsufficientData bool           `json:"insufficientData,omitempty"`
}

// #endregion assessment
