package memory

import (
	"context"
	"sort"
	"sync"

	"coach-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ResultStore is an append-only in-memory result store.
type ResultStore struct {
	mu      sync.RWMutex
	records []domain.ResultRecord
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Append stores a copy of record. A record whose session already has one returns
// the existing id.
func (s *ResultStore) Append(_ context.Context, record domain.ResultRecord) (string, error) {
	record = record.Clone()
	record.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if record.SessionID != "" {
		for _, r := range s.records {
			if r.SessionID == record.SessionID {
				return r.ID, nil
			}
		}
	}
	s.records = append(s.records, record)
	return record.ID, nil
}

// ListByTeam returns the team's records ordered by submission time, newest first.
func (s *ResultStore) ListByTeam(_ context.Context, team string) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	out := make([]domain.ResultRecord, 0)
	for _, r := range s.records {
		if r.Team == team {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (s *ResultStore) Get(_ context.Context, resultID string) (domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == resultID {
			return r.Clone(), nil
		}
	}
	return domain.ResultRecord{}, domain.ErrResultNotFound
}
