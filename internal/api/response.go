// Package api holds the risk service's wire shape, shared by the HTTP and
// gRPC transports and their clients.
package api

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/assessor"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
	"github.com/danielpatrickdp/wellness-risk/internal/widget"
)

const (
	NoAssessmentMessage = "No risk assessment available yet"
	CompletedMessage    = "Risk assessment completed"
	DefaultUserID       = "demo-user"
)

// #region response
// RiskResponse is the body of GET /risk-score and POST /calculate-risk.
type RiskResponse struct {
	OK                    bool                `json:"ok"`
	Error                 string              `json:"error,omitempty"`
	Message               string              `json:"message,omitempty"`
	AssessmentID          string              `json:"assessmentId,omitempty"`
	RiskLevel             risk.Level          `json:"riskLevel,omitempty"`
	RiskScore             *float64            `json:"riskScore,omitempty"`
	Confidence            *float64            `json:"confidence,omitempty"`
	LastAssessment        *time.Time          `json:"lastAssessment,omitempty"`
	InterventionTriggered bool                `json:"interventionTriggered"`
	RiskFactors           []string            `json:"riskFactors,omitempty"`
	Interventions         []risk.Intervention `json:"interventions,omitempty"`
	LowConfidence         bool                `json:"lowConfidence,omitempty"`
	InsufficientData      bool                `json:"insufficientData,omitempty"`
}

// CalculateRequest is the body of POST /calculate-risk.
type CalculateRequest struct {
	UserID string `json:"userId"`
}

// FromResult renders a stored or fresh assessment.
func FromResult(r assessor.Result) RiskResponse {
	a := r.Assessment
	score, conf := a.Score, a.Confidence
	resp := RiskResponse{
		OK:                    true,
		AssessmentID:          r.ID,
		RiskLevel:             a.Level,
		RiskScore:             &score,
		Confidence:            &conf,
		InterventionTriggered: r.InterventionTriggered,
		RiskFactors:           a.Factors,
		Interventions:         a.Interventions,
		LowConfidence:         a.LowConfidence,
		InsufficientData:      a.InsufficientData,
	}
	if !a.ComputedAt.IsZero() {
		at := a.ComputedAt
		resp.LastAssessment = &at
	}
	return resp
}

// NoAssessment is returned for users that were never scored.
func NoAssessment() RiskResponse {
	return RiskResponse{OK: true, RiskLevel: risk.LevelUnknown, Message: NoAssessmentMessage}
}

// Failure wraps an error message.
func Failure(msg string) RiskResponse {
	return RiskResponse{OK: false, Error: msg}
}

// #endregion response

// #region snapshot
// Snapshot converts a response into client state. ok:false becomes
// widget.ErrServiceRejected.
func (r RiskResponse) Snapshot() (widget.Snapshot, error) {
	if !r.OK {
		return widget.Snapshot{}, fmt.Errorf("%w: %s", widget.ErrServiceRejected, r.Error)
	}
	a := risk.Assessment{
		Level:            risk.ParseLevel(string(r.RiskLevel)),
		Factors:          r.RiskFactors,
		Interventions:    r.Interventions,
		LowConfidence:    r.LowConfidence,
		InsufficientData: r.InsufficientData,
	}
	if r.RiskScore != nil {
		a.Score = *r.RiskScore
	}
	if r.Confidence != nil {
		a.Confidence = *r.Confidence
	}
	if r.LastAssessment != nil {
		a.ComputedAt = *r.LastAssessment
	}
	return widget.Snapshot{
		Assessment:            a,
		InterventionTriggered: r.InterventionTriggered,
		Message:               r.Message,
	}, nil
}

// #endregion snapshot
