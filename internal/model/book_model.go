package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Book is the shared corpus record. Embedding is nullable: a book becomes
// retrieval-eligible only once its embedding is populated.
type Book struct {
	Id              uuid.UUID                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Isbn13          string                       `gorm:"type:varchar(20);uniqueIndex;not null"`
	Isbn10          *string                      `gorm:"type:varchar(20);index"`
	Title           string                       `gorm:"type:text;not null"`
	Author          string                       `gorm:"type:text;not null"`
	TitleNormalized string                       `gorm:"type:text;index"`
	AuthorNormalized string                      `gorm:"type:text;index"`
	Description     *string                      `gorm:"type:text"`
	Categories      datatypes.JSONSlice[string]  `gorm:"type:jsonb"`
	PageCount       *int
	Publisher       *string `gorm:"type:text"`
	PublicationYear *int
	Language        *string  `gorm:"type:varchar(10)"`
	AverageRating   *float64 `gorm:"type:decimal(4,2)"`
	RatingsCount    *int
	CoverURL        *string          `gorm:"type:text"`
	Embedding       *pgvector.Vector `gorm:"type:vector(768)"`
	DataSource      string           `gorm:"type:varchar(50);default:'seed'"`
	CreatedAt       time.Time        `gorm:"autoCreateTime"`
}

func (Book) TableName() string {
	return "books"
}
