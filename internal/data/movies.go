package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ejacobg/moviesdb/internal/validator"
)

type Movie struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"-"` // Timestamp of when movie was first added to the database.
	Title       string    `json:"title"`
	Year        int32     `json:"year"` // Year of release.
	Description string    `json:"description"`
}

func ValidateMovie(v *validator.Validator, movie *Movie) {
	v.Check(movie.ID >= 0, "id", "must not be negative")

	v.Check(movie.Title != "", "title", "must be provided")
	v.Check(len(movie.Title) <= 500, "title", "must not be more than 500 bytes long")

	v.Check(movie.Year != 0, "year", "must be provided")
	v.Check(movie.Year >= 1888, "year", "must be greater than 1888")
	v.Check(movie.Year <= int32(time.Now().Year()), "year", "must not be in the future")

	v.Check(movie.Description != "", "description", "must be provided")
	v.Check(len(movie.Description) <= 5000, "description", "must not be more than 5000 bytes long")
}

// queryTimeout bounds every statement sent to the database.
const queryTimeout = 3 * time.Second

const movieSchema = `
	CREATE TABLE IF NOT EXISTS movies (
		id bigserial PRIMARY KEY,
		created_at timestamp(0) with time zone NOT NULL DEFAULT NOW(),
		title text NOT NULL,
		year integer NOT NULL,
		description text NOT NULL
	)`

// MovieModel stores movies in PostgreSQL.
type MovieModel struct {
	DB *sql.DB
}

// EnsureSchema creates the movies table if it is missing.
func (m MovieModel) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := m.DB.ExecContext(ctx, movieSchema)
	return err
}

// Insert adds movie to the table. A zero ID lets the database assign one; a positive ID is stored as given.
// The assigned ID and creation time are written back into movie.
func (m MovieModel) Insert(movie *Movie) error {
	if movie.ID > 0 {
		return m.insertWithID(movie)
	}

	query := `
		INSERT INTO movies (title, year, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, movie.Title, movie.Year, movie.Description).Scan(&movie.ID, &movie.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// advanceSequence moves the id sequence past $1 so later database-assigned ids skip it.
// The sequence never moves backwards.
const advanceSequence = `
	SELECT setval(
		pg_get_serial_sequence('movies', 'id'),
		GREATEST($1::bigint, COALESCE(pg_sequence_last_value(pg_get_serial_sequence('movies', 'id')::regclass), 0))
	)`

// insertWithID stores a client-chosen id and advances the id sequence in the same transaction.
func (m MovieModel) insertWithID(movie *Movie) error {
	query := `
		INSERT INTO movies (id, title, year, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Rollback is a no-op once Commit has succeeded.
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, query, movie.ID, movie.Title, movie.Year, movie.Description).Scan(&movie.ID, &movie.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return err
	}

	if _, err = tx.ExecContext(ctx, advanceSequence, movie.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (m MovieModel) Get(id int64) (*Movie, error) {
	// bigserial starts at 1.
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT id, created_at, title, year, description
		FROM movies
		WHERE id = $1`

	var movie Movie

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, id).Scan(
		&movie.ID,
		&movie.CreatedAt,
		&movie.Title,
		&movie.Year,
		&movie.Description,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &movie, nil
}

// GetAll returns one page of movies whose title matches the given words. An empty title matches every movie.
func (m MovieModel) GetAll(title string, filters Filters) ([]*Movie, Metadata, error) {
	// The sort column and direction come from the safelist, so interpolating them is safe.
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, created_at, title, year, description
		FROM movies
		WHERE (to_tsvector('simple', title) @@ plainto_tsquery('simple', $1) OR $1 = '')
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, title, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	defer rows.Close()

	totalRecords := 0
	movies := []*Movie{}

	for rows.Next() {
		var movie Movie
		err := rows.Scan(
			&totalRecords,
			&movie.ID,
			&movie.CreatedAt,
			&movie.Title,
			&movie.Year,
			&movie.Description,
		)
		if err != nil {
			return nil, Metadata{}, err
		}
		movies = append(movies, &movie)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return movies, metadata, nil
}
