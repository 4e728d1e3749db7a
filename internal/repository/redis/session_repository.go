package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/pkg/store"

	goredis "github.com/redis/go-redis/v9"
)

// SessionRepository keeps sessions in redis under TTL-bearing keys. The
// session value, its ingest status and its ingest progress live under
// separate keys so the cheap status poll never deserializes the library.
type SessionRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *goredis.Client, ttl time.Duration) contract.SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(sessionId string) string {
	return fmt.Sprintf("session:%s", sessionId)
}

func statusKey(sessionId string) string {
	return fmt.Sprintf("session:%s:ingest_status", sessionId)
}

func progressKey(sessionId string) string {
	return fmt.Sprintf("session:%s:progress", sessionId)
}

func (r *SessionRepository) Create(ctx context.Context, session *store.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(session.ID), payload, r.ttl).Err()
}

func (r *SessionRepository) Get(ctx context.Context, sessionId string) (*store.Session, error) {
	payload, err := r.client.Get(ctx, sessionKey(sessionId)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var session store.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *store.Session) error {
	return r.Create(ctx, session)
}

func (r *SessionRepository) ExtendTTL(ctx context.Context, sessionId string) error {
	return r.client.Expire(ctx, sessionKey(sessionId), r.ttl).Err()
}

func (r *SessionRepository) Delete(ctx context.Context, sessionId string) error {
	return r.client.Del(ctx, sessionKey(sessionId), statusKey(sessionId), progressKey(sessionId)).Err()
}

func (r *SessionRepository) SetIngestStatus(ctx context.Context, sessionId, status string) error {
	return r.client.Set(ctx, statusKey(sessionId), status, r.ttl).Err()
}

func (r *SessionRepository) GetIngestStatus(ctx context.Context, sessionId string) (string, error) {
	status, err := r.client.Get(ctx, statusKey(sessionId)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return store.IngestStatusNone, nil
		}
		return "", err
	}
	return status, nil
}

func (r *SessionRepository) SetIngestProgress(ctx context.Context, sessionId string, progress *store.IngestProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, progressKey(sessionId), payload, r.ttl).Err()
}

func (r *SessionRepository) GetIngestProgress(ctx context.Context, sessionId string) (*store.IngestProgress, error) {
	payload, err := r.client.Get(ctx, progressKey(sessionId)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var progress store.IngestProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}
