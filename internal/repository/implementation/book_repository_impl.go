package implementation

import (
	"context"
	"errors"

	"ai-bookrec-be/internal/entity"
	"ai-bookrec-be/internal/mapper"
	"ai-bookrec-be/internal/model"
	"ai-bookrec-be/internal/repository/contract"
	"ai-bookrec-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BookMapper
}

func NewBookRepository(db *gorm.DB) contract.BookRepository {
	return &BookRepositoryImpl{
		db:     db,
		mapper: mapper.NewBookMapper(),
	}
}

func (r *BookRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert inserts keyed on isbn13. When another ingestion worker already won
// the insert race the conflict clause makes this a no-op, and we read the
// winner's row back so the caller always gets the stored record.
func (r *BookRepositoryImpl) Upsert(ctx context.Context, book *entity.Book) (*entity.Book, bool, error) {
	m := r.mapper.ToModel(book)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "isbn13"}},
			DoNothing: true,
		}).
		Create(m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing model.Book
		if err := r.db.WithContext(ctx).Where("isbn13 = ?", m.Isbn13).First(&existing).Error; err != nil {
			return nil, false, err
		}
		return r.mapper.ToEntity(&existing), false, nil
	}
	return r.mapper.ToEntity(m), true, nil
}

func (r *BookRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Book, error) {
	var m model.Book
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BookRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error) {
	var models []*model.Book
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *BookRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Book{}).Count(&count).Error
	return count, err
}

func (r *BookRepositoryImpl) FindByIdentifier(ctx context.Context, isbn, titleNorm, authorNorm string) (*entity.Book, error) {
	if isbn != "" {
		book, err := r.FindOne(ctx, specification.ByIsbn{Isbn: isbn})
		if err != nil || book != nil {
			return book, err
		}
	}
	if titleNorm == "" || authorNorm == "" {
		return nil, nil
	}
	return r.FindOne(ctx, specification.ByNormalizedTitleAuthor{Title: titleNorm, Author: authorNorm})
}

// SearchSimilar orders retrieval-eligible books by cosine similarity.
// pgvector's <=> is cosine distance, so similarity = 1 - distance.
func (r *BookRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, excludeIds []uuid.UUID) ([]*contract.ScoredBook, error) {
	if limit <= 0 {
		limit = 20
	}

	type result struct {
		model.Book
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("books").
		Select("books.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("embedding IS NOT NULL")
	if len(excludeIds) > 0 {
		query = query.Where("id NOT IN ?", excludeIds)
	}
	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredBook, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredBook{
			Book:       r.mapper.ToEntity(&res.Book),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *BookRepositoryImpl) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	return r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ?", id).
		Update("embedding", vec).Error
}
