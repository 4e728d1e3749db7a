package mapper

import (
	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type BookMapper struct{}

func NewBookMapper() *BookMapper {
	return &BookMapper{}
}

func (m *BookMapper) ToEntity(b *model.Book) *entity.Book {
	if b == nil {
		return nil
	}

	var embedding []float32
	if b.Embedding != nil {
		embedding = b.Embedding.Slice()
	}

	return &entity.Book{
		Id:              b.Id,
		Isbn13:          b.Isbn13,
		Isbn10:          b.Isbn10,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		Categories:      []string(b.Categories),
		PageCount:       b.PageCount,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
		Language:        b.Language,
		AverageRating:   b.AverageRating,
		RatingsCount:    b.RatingsCount,
		CoverURL:        b.CoverURL,
		Embedding:       embedding,
		DataSource:      b.DataSource,
		CreatedAt:       b.CreatedAt,
	}
}

func (m *BookMapper) ToModel(b *entity.Book) *model.Book {
	if b == nil {
		return nil
	}

	var embedding *pgvector.Vector
	if len(b.Embedding) > 0 {
		v := pgvector.NewVector(b.Embedding)
		embedding = &v
	}

	return &model.Book{
		Id:               b.Id,
		Isbn13:           b.Isbn13,
		Isbn10:           b.Isbn10,
		Title:            b.Title,
		Author:           b.Author,
		TitleNormalized:  NormalizeTitle(b.Title),
		AuthorNormalized: NormalizeAuthor(b.Author),
		Description:      b.Description,
		Categories:       datatypes.NewJSONSlice(b.Categories),
		PageCount:        b.PageCount,
		Publisher:        b.Publisher,
		PublicationYear:  b.PublicationYear,
		Language:         b.Language,
		AverageRating:    b.AverageRating,
		RatingsCount:     b.RatingsCount,
		CoverURL:         b.CoverURL,
		Embedding:        embedding,
		DataSource:       b.DataSource,
		CreatedAt:        b.CreatedAt,
	}
}

func (m *BookMapper) ToEntities(books []*model.Book) []*entity.Book {
	entities := make([]*entity.Book, len(books))
	for i, b := range books {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
