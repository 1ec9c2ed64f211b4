package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory builds the repository set for one database handle on first use.
type Factory struct {
	db    *gorm.DB
	once  sync.Once
	repos *Repositories
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// Repositories returns the shared set, building it once.
func (f *Factory) Repositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// DB is the handle services use to open their own transactions.
func (f *Factory) DB() *gorm.DB {
	return f.db
}
