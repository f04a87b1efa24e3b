package data

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

// MemoryMovieModel keeps movies in a map for the life of the process.
type MemoryMovieModel struct {
	mu     sync.RWMutex
	movies map[int64]Movie
	nextID int64
}

func NewMemoryMovieModel() *MemoryMovieModel {
	return &MemoryMovieModel{
		movies: make(map[int64]Movie),
		nextID: 1,
	}
}

func (m *MemoryMovieModel) Insert(movie *Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := movie.ID
	if id == 0 {
		// Skip ids that were claimed explicitly by earlier inserts.
		for {
			if _, taken := m.movies[m.nextID]; !taken {
				break
			}
			m.nextID++
		}
		id = m.nextID
		m.nextID++
	} else if _, exists := m.movies[id]; exists {
		return ErrDuplicateID
	}

	movie.ID = id
	movie.CreatedAt = time.Now().UTC().Truncate(time.Second)
	m.movies[id] = *movie
	return nil
}

func (m *MemoryMovieModel) Get(id int64) (*Movie, error) {
	m.mu.RLock()
	movie, ok := m.movies[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrRecordNotFound
	}
	return &movie, nil
}

func (m *MemoryMovieModel) GetAll(title string, filters Filters) ([]*Movie, Metadata, error) {
	terms := words(title)

	m.mu.RLock()
	matched := make([]*Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		movie := movie
		if matchesAll(words(movie.Title), terms) {
			matched = append(matched, &movie)
		}
	}
	m.mu.RUnlock()

	less := movieLess(filters.sortColumn())
	desc := filters.sortDirection() == "DESC"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch {
		case less(a, b):
			return !desc
		case less(b, a):
			return desc
		default:
			return a.ID < b.ID
		}
	})

	total := len(matched)
	start := filters.offset()
	if start > total {
		start = total
	}
	end := start + filters.limit()
	if end > total {
		end = total
	}

	return matched[start:end], calculateMetadata(total, filters.Page, filters.PageSize), nil
}

func movieLess(column string) func(a, b *Movie) bool {
	switch column {
	case "title":
		return func(a, b *Movie) bool { return a.Title < b.Title }
	case "year":
		return func(a, b *Movie) bool { return a.Year < b.Year }
	default:
		return func(a, b *Movie) bool { return a.ID < b.ID }
	}
}

// words splits s into lower-cased alphanumeric words.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func matchesAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, w := range have {
		set[w] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
