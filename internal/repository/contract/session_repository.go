package contract

import (
	"context"

	"ai-bookrec-be/pkg/store"
)

// SessionRepository is the TTL-keyed session protocol. Implementations are
// redis-backed (production) and go-cache-backed (dev/tests); values are
// opaque to the store.
type SessionRepository interface {
	Create(ctx context.Context, session *store.Session) error
	Get(ctx context.Context, sessionId string) (*store.Session, error)
	// Update rewrites the session value and refreshes the lease.
	Update(ctx context.Context, session *store.Session) error
	// ExtendTTL refreshes the lease without touching the value. The
	// ingestion worker calls this periodically so a long run does not
	// outlive its session.
	ExtendTTL(ctx context.Context, sessionId string) error
	Delete(ctx context.Context, sessionId string) error

	SetIngestStatus(ctx context.Context, sessionId, status string) error
	// GetIngestStatus returns store.IngestStatusNone when no export was
	// ever uploaded for the session.
	GetIngestStatus(ctx context.Context, sessionId string) (string, error)

	SetIngestProgress(ctx context.Context, sessionId string, progress *store.IngestProgress) error
	GetIngestProgress(ctx context.Context, sessionId string) (*store.IngestProgress, error)
}
