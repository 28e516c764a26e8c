package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

// #region log-intervention
// LogIntervention writes an intervention log row and returns its id.
// CreatedAt defaults to now; ExpiresAt defaults to CreatedAt plus the 90-day TTL.
func (s *Store) LogIntervention(ctx context.Context, rec InterventionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = rec.CreatedAt.Add(interventionTTL)
	}

	factors, err := json.Marshal(rec.Factors)
	if err != nil {
		return "", fmt.Errorf("marshal factors: %w", err)
	}
	actions, err := json.Marshal(rec.Actions)
	if err != nil {
		return "", fmt.Errorf("marshal actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interventions (intervention_id, user_id, risk_level, risk_score, risk_factors, actions, message, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		string(rec.Level),
		rec.Score,
		string(factors),
		string(actions),
		nullIfEmpty(rec.Message),
		sortKeyAt(rec.CreatedAt),
		sortKeyAt(rec.ExpiresAt),
	)
	if err != nil {
		return "", fmt.Errorf("log intervention: %w", err)
	}
	return rec.ID, nil
}

// #endregion log-intervention

// #region list-interventions
// ListInterventions returns a user's unexpired interventions, newest first.
func (s *Store) ListInterventions(ctx context.Context, userID string) ([]InterventionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT intervention_id, user_id, risk_level, risk_score, risk_factors, actions, message, created_at, expires_at
		 FROM interventions WHERE user_id = ? AND expires_at > ? ORDER BY created_at DESC`,
		userID, sortKeyAt(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	defer rows.Close()

	var out []InterventionRecord
	for rows.Next() {
		var rec InterventionRecord
		var level, factors, actions, created, expires string
		var message *string
		if err := rows.Scan(&rec.ID, &rec.UserID, &level, &rec.Score, &factors, &actions, &message, &created, &expires); err != nil {
			return nil, fmt.Errorf("scan intervention: %w", err)
		}
		rec.Level = risk.ParseLevel(level)
		if err := json.Unmarshal([]byte(factors), &rec.Factors); err != nil {
			return nil, fmt.Errorf("unmarshal factors: %w", err)
		}
		if err := json.Unmarshal([]byte(actions), &rec.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions: %w", err)
		}
		if message != nil {
			rec.Message = *message
		}
		rec.CreatedAt, _ = time.Parse(sortLayout, created)
		rec.ExpiresAt, _ = time.Parse(sortLayout, expires)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion list-interventions

// #region purge
// PurgeExpired deletes intervention rows past their expiry and returns how many went.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM interventions WHERE expires_at <= ?`, sortKeyAt(s.now()))
	if err != nil {
		return 0, fmt.Errorf("purge interventions: %w", err)
	}
	return res.RowsAffected()
}

// #endregion purge
