package assessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/notify"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

// Method tags assessments produced by the weighted classifier.
const Method = "weighted_ensemble"

// ErrMissingUser is returned when no user id is supplied.
var ErrMissingUser = errors.New("assessor: userId is required")

// #region deps
// Assembler yields the merged feature vector for a user.
type Assembler interface {
	Assemble(ctx context.Context, userID string) (features.Vector, error)
}

// Classifier maps a vector to an assessment. *classifier.Classifier and
// *classifier.Reloader both satisfy it.
type Classifier interface {
	Classify(v features.Vector) risk.Assessment
}

// Store is the persistence the service needs.
type Store interface {
	PutAssessment(ctx context.Context, a store.AssessmentRecord) error
	LatestAssessment(ctx context.Context, userID string) (store.AssessmentRecord, error)
	LogIntervention(ctx context.Context, rec store.InterventionRecord) (string, error)
}

// Notifier announces logged interventions. Delivery failures are logged,
// never returned.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// #endregion deps

// #region result
// Result is one persisted assessment.
type Result struct {
	ID                    string
	UserID                string
	Assessment            risk.Assessment
	InterventionTriggered bool
	InterventionID        string
}

func fromRecord(rec store.AssessmentRecord) Result {
	return Result{
		ID:                    rec.ID,
		UserID:                rec.UserID,
		Assessment:            rec.Assessment,
		InterventionTriggered: rec.InterventionTriggered,
	}
}

// #endregion result

// #region service
// Service assembles features, classifies and records the outcome.
type Service struct {
	assembler  Assembler
	classifier Classifier
	store      Store
	notifier   Notifier
	logger     *zap.Logger
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes every logged intervention through n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New creates a Service. logger may be nil.
func New(assembler Assembler, classifier Classifier, st Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		assembler:  assembler,
		classifier: classifier,
		store:      st,
		logger:     logger.Named("assessor"),
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Calculate scores the user now and persists the result. High and critical
// results also write an intervention log entry.
func (s *Service) Calculate(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return Result{}, ErrMissingUser
	}
	v, err := s.assembler.Assemble(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("calculate %s: %w", userID, err)
	}
	a := s.classifier.Classify(v)

	res := Result{
		ID:                    s.newID(),
		UserID:                userID,
		Assessment:            a,
		InterventionTriggered: a.Level.Escalates(),
	}
	rec := store.AssessmentRecord{
		ID:                    res.ID,
		UserID:                userID,
		Method:                Method,
		InterventionTriggered: res.InterventionTriggered,
		Assessment:            a,
	}
	if err := s.store.PutAssessment(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("calculate %s: %w", userID, err)
	}

	// The assessment is already stored; a failed intervention log leaves
	// InterventionID empty instead of failing the call.
	if res.InterventionTriggered {
		id, err := s.store.LogIntervention(ctx, interventionFor(userID, a))
		if err != nil {
			s.logger.Error("log intervention failed",
				zap.String("user", userID),
				zap.String("assessment", res.ID),
				zap.Error(err),
			)
		}
		res.InterventionID = id
		if err == nil && s.notifier != nil {
			if err := s.notifier.Notify(ctx, notify.EventFor(id, res.ID, userID, a)); err != nil {
				s.logger.Warn("intervention notification failed", zap.String("user", userID), zap.Error(err))
			}
		}
	}

	s.logger.Info("risk assessed",
		zap.String("user", userID),
		zap.String("level", string(a.Level)),
		zap.Float64("score", a.Score),
		zap.Float64("confidence", a.Confidence),
		zap.Int("features", len(v)),
		zap.Bool("intervention", res.InterventionTriggered),
	)
	return res, nil
}

// Latest returns the newest stored assessment. ok is false when the user has
// never been assessed.
func (s *Service) Latest(ctx context.Context, userID string) (Result, bool, error) {
	if userID == "" {
		return Result{}, false, ErrMissingUser
	}
	rec, err := s.store.LatestAssessment(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("latest %s: %w", userID, err)
	}
	return fromRecord(rec), true, nil
}

func interventionFor(userID string, a risk.Assessment) store.InterventionRecord {
	rec := store.InterventionRecord{
		UserID:  userID,
		Level:   a.Level,
		Score:   a.Score,
		Factors: a.Factors,
	}
	for _, iv := range a.Interventions {
		rec.Actions = append(rec.Actions, iv.Action)
	}
	if len(a.Interventions) > 0 {
		rec.Message = a.Interventions[0].Message
	}
	rec.CreatedAt = a.ComputedAt
	return rec
}

// #endregion service
