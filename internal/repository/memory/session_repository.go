package memory

import (
	"context"
	"time"

	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the go-cache backed session store used in dev and
// tests. Same TTL semantics as the redis implementation, single process.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl time.Duration) contract.SessionRepository {
	// Purge interval is coarse on purpose; expiry checks on read keep
	// the observable behavior exact.
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		ttl:   ttl,
	}
}

func (r *SessionRepository) Create(_ context.Context, session *store.Session) error {
	r.cache.Set(session.ID, session, r.ttl)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionId string) (*store.Session, error) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*store.Session), nil
	}
	return nil, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *store.Session) error {
	return r.Create(ctx, session)
}

func (r *SessionRepository) ExtendTTL(_ context.Context, sessionId string) error {
	if x, found := r.cache.Get(sessionId); found {
		r.cache.Set(sessionId, x, r.ttl)
	}
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionId string) error {
	r.cache.Delete(sessionId)
	r.cache.Delete(statusKey(sessionId))
	r.cache.Delete(progressKey(sessionId))
	return nil
}

func (r *SessionRepository) SetIngestStatus(_ context.Context, sessionId, status string) error {
	r.cache.Set(statusKey(sessionId), status, r.ttl)
	return nil
}

func (r *SessionRepository) GetIngestStatus(_ context.Context, sessionId string) (string, error) {
	if x, found := r.cache.Get(statusKey(sessionId)); found {
		return x.(string), nil
	}
	return store.IngestStatusNone, nil
}

func (r *SessionRepository) SetIngestProgress(_ context.Context, sessionId string, progress *store.IngestProgress) error {
	r.cache.Set(progressKey(sessionId), progress, r.ttl)
	return nil
}

func (r *SessionRepository) GetIngestProgress(_ context.Context, sessionId string) (*store.IngestProgress, error) {
	if x, found := r.cache.Get(progressKey(sessionId)); found {
		return x.(*store.IngestProgress), nil
	}
	return nil, nil
}

func statusKey(sessionId string) string {
	return sessionId + ":ingest_status"
}

func progressKey(sessionId string) string {
	return sessionId + ":progress"
}
