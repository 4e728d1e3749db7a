package model

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation links a (possibly already expired) session to a selected
// book and the trace that produced it. Immutable after creation; the
// retention sweep is the only deleter.
type Recommendation struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId       string    `gorm:"type:varchar(255);not null;index"`
	BookId          uuid.UUID `gorm:"type:uuid;not null;index"`
	ConfidenceScore float64   `gorm:"type:decimal(5,2);not null"`
	Explanation     string    `gorm:"type:text;not null"`
	Rank            int       `gorm:"not null"`
	TraceId         *string   `gorm:"type:varchar(255)"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}
