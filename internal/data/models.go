package data

import (
	"database/sql"
	"errors"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateID    = errors.New("duplicate id")
)

// MovieStore is the datastore behind the movie handlers.
type MovieStore interface {
	Insert(movie *Movie) error
	Get(id int64) (*Movie, error)
	GetAll(title string, filters Filters) ([]*Movie, Metadata, error)
}

// Models groups the stores used by the application.
type Models struct {
	Movies MovieStore
}

// NewModels returns models backed by a PostgreSQL connection pool.
func NewModels(db *sql.DB) Models {
	return Models{
		Movies: MovieModel{DB: db},
	}
}

// NewMemoryModels returns models backed by process memory.
func NewMemoryModels() Models {
	return Models{
		Movies: NewMemoryMovieModel(),
	}
}

// Cached returns a copy of m whose movie lookups go through a read-through cache.
func (m Models) Cached() Models {
	return Models{
		Movies: NewCachedMovieModel(m.Movies),
	}
}
