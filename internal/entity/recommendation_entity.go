package entity

import (
	"time"

	"github.com/google/uuid"
)

type Recommendation struct {
	Id              uuid.UUID
	SessionId       string
	BookId          uuid.UUID
	ConfidenceScore float64 // 0-100
	Explanation     string
	Rank            int // 1..3
	TraceId         *string
	CreatedAt       time.Time
}
