package unitofwork

import (
	"context"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db *gorm.DB
}

func NewRepositoryFactory(db *gorm.DB) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db: db,
	}
}

// NewUnitOfWork hands out a short lived per-request UoW over the shared
// DB handle. Transactions start on Begin, not here.
func (f *RepositoryFactoryImpl) NewUnitOfWork(_ context.Context) UnitOfWork {
	return NewUnitOfWork(f.db)
}
