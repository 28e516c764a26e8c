package store

import (
	"context"
	"fmt"
	"time"
)

// #region record-constructors
// ProfileRecord keys a profile.
func ProfileRecord(p Profile) Record {
	return Record{Key: Key{UserID: p.UserID, Type: TypeProfile, SortKey: CurrentKey}, Payload: p}
}

// MoodRecord keys a mood entry by its date, one entry per day.
func MoodRecord(m MoodEntry) Record {
	date := m.Date
	if date == "" {
		date = m.Timestamp.UTC().Format("2006-01-02")
	}
	m.Date = date
	return Record{Key: Key{UserID: m.UserID, Type: TypeMood, SortKey: date}, Payload: m}
}

// ChatRecord keys a chat message by timestamp and sender.
func ChatRecord(c ChatMessage) Record {
	return Record{Key: Key{UserID: c.UserID, Type: TypeChat, SortKey: sortKeyAt(c.Timestamp) + "#" + c.Sender}, Payload: c}
}

// FeaturesRecord keys the current feature vector.
func FeaturesRecord(f FeatureRecord) Record {
	return Record{Key: Key{UserID: f.UserID, Type: TypeFeatures, SortKey: CurrentKey}, Payload: f}
}

// AssessmentRecordFor keys an assessment by its computation time.
func AssessmentRecordFor(a AssessmentRecord) Record {
	return Record{
		Key:     Key{UserID: a.UserID, Type: TypeAssessment, SortKey: sortKeyAt(a.Assessment.ComputedAt) + "#" + a.ID},
		Payload: a,
	}
}

// #endregion record-constructors

// #region profile
// PutProfile upserts a user profile.
func (s *Store) PutProfile(ctx context.Context, p Profile) error {
	return s.Put(ctx, ProfileRecord(p))
}

// GetProfile reads a user profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.Get(ctx, Key{UserID: userID, Type: TypeProfile, SortKey: CurrentKey}, &p)
	return p, err
}

// #endregion profile

// #region moods
// PutMood upserts a mood entry.
func (s *Store) PutMood(ctx context.Context, m MoodEntry) error {
	return s.Put(ctx, MoodRecord(m))
}

// ListMoods returns mood entries dated after since, oldest first.
func (s *Store) ListMoods(ctx context.Context, userID string, since time.Time) ([]MoodEntry, error) {
	after := ""
	if !since.IsZero() {
		after = since.UTC().Format("2006-01-02")
	}
	raw, err := s.Query(ctx, userID, TypeMood, QueryOptions{After: after})
	if err != nil {
		return nil, err
	}
	return decodeAll[MoodEntry](raw)
}

// #endregion moods

// #region chats
// PutChat appends a chat message.
func (s *Store) PutChat(ctx context.Context, c ChatMessage) error {
	return s.Put(ctx, ChatRecord(c))
}

// ListChats returns up to limit messages, oldest first. limit <= 0 returns all.
func (s *Store) ListChats(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	raw, err := s.Query(ctx, userID, TypeChat, QueryOptions{Limit: limit, Descending: true})
	if err != nil {
		return nil, err
	}
	msgs, err := decodeAll[ChatMessage](raw)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// #endregion chats

// #region features
// PutFeatures replaces the current feature vector.
func (s *Store) PutFeatures(ctx context.Context, f FeatureRecord) error {
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = s.now()
	}
	return s.Put(ctx, FeaturesRecord(f))
}

// GetFeatures reads the current feature vector.
func (s *Store) GetFeatures(ctx context.Context, userID string) (FeatureRecord, error) {
	var f FeatureRecord
	err := s.Get(ctx, Key{UserID: userID, Type: TypeFeatures, SortKey: CurrentKey}, &f)
	return f, err
}

// #endregion features

// #region assessments
// PutAssessment appends an assessment; earlier ones are kept as history.
func (s *Store) PutAssessment(ctx context.Context, a AssessmentRecord) error {
	if a.ID == "" {
		return fmt.Errorf("put assessment: id is required")
	}
	return s.Put(ctx, AssessmentRecordFor(a))
}

// LatestAssessment returns the most recently computed assessment.
func (s *Store) LatestAssessment(ctx context.Context, userID string) (AssessmentRecord, error) {
	raw, err := s.Query(ctx, userID, TypeAssessment, QueryOptions{Limit: 1, Descending: true})
	if err != nil {
		return AssessmentRecord{}, err
	}
	if len(raw) == 0 {
		return AssessmentRecord{}, fmt.Errorf("latest assessment for %s: %w", userID, ErrNotFound)
	}
	recs, err := decodeAll[AssessmentRecord](raw)
	if err != nil {
		return AssessmentRecord{}, err
	}
	return recs[0], nil
}

// ListAssessments returns up to limit assessments, newest first.
func (s *Store) ListAssessments(ctx context.Context, userID string, limit int) ([]AssessmentRecord, error) {
	raw, err := s.Query(ctx, userID, TypeAssessment, QueryOptions{Limit: limit, Descending: true})
	if err != nil {
		return nil, err
	}
	return decodeAll[AssessmentRecord](raw)
}

// #endregion assessments
