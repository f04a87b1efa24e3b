package data

import (
	"strconv"

	"github.com/ejacobg/moviesdb/internal/cache"
	"golang.org/x/sync/singleflight"
)

// CachedMovieModel is a read-through cache in front of another MovieStore.
// Fetched and inserted movies are kept forever; failed lookups are not cached.
type CachedMovieModel struct {
	store  MovieStore
	cache  *cache.Cache[int64, Movie]
	flight singleflight.Group
}

func NewCachedMovieModel(store MovieStore) *CachedMovieModel {
	return &CachedMovieModel{
		store: store,
		cache: cache.New[int64, Movie](),
	}
}

// Insert writes through to the underlying store, then caches the stored movie.
func (m *CachedMovieModel) Insert(movie *Movie) error {
	if err := m.store.Insert(movie); err != nil {
		return err
	}
	m.cache.Set(movie.ID, *movie)
	return nil
}

// Get serves id from the cache, falling back to the underlying store on a miss.
// Concurrent misses for the same id share a single store lookup.
func (m *CachedMovieModel) Get(id int64) (*Movie, error) {
	if movie, ok := m.cache.Get(id); ok {
		return &movie, nil
	}

	v, err, _ := m.flight.Do(strconv.FormatInt(id, 10), func() (any, error) {
		movie, err := m.store.Get(id)
		if err != nil {
			return nil, err
		}
		m.cache.Set(id, *movie)
		return *movie, nil
	})
	if err != nil {
		return nil, err
	}

	movie := v.(Movie)
	return &movie, nil
}

// GetAll is not cached.
func (m *CachedMovieModel) GetAll(title string, filters Filters) ([]*Movie, Metadata, error) {
	return m.store.GetAll(title, filters)
}

func (m *CachedMovieModel) Stats() cache.Stats {
	return m.cache.Stats()
}
