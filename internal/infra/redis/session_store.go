package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps session snapshots in Redis so any instance can serve the next
// request of an attempt. Each save refreshes the TTL; abandoned attempts expire.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

// Save writes the session only if the stored copy is still the revision it was
// read from; otherwise it returns domain.ErrSessionConflict and the caller re-reads.
func (s *SessionStore) Save(ctx context.Context, session *app.Session) error {
	snap := session.Snapshot()
	expected := snap.Version
	snap.Version++
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := s.key(session.ID())
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expected {
			return domain.ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrSessionConflict
	}
	if err != nil {
		return err
	}
	session.MarkStored(snap.Version)
	return nil
}

// storedVersion reads the revision under key; a missing key is revision zero.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("unmarshal session: %w", err)
	}
	return head.Version, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*app.Session, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var snap app.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return app.RestoreSession(snap)
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
