package unitofwork

import (
	"context"

	"ai-bookrec-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	BookRepository() contract.BookRepository
	RecommendationRepository() contract.RecommendationRepository
}
