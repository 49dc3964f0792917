package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const filmColumns = `film_id, film_title, film_link, avg_rating, num_ratings, num_watches,
	num_likes, like_ratio, stddev_rating, metadata, reviews, watches`

var (
	selectFilms = `SELECT ` + filmColumns + ` FROM films ORDER BY film_id`
	selectFilm  = `SELECT ` + filmColumns + ` FROM films WHERE film_id = $1`
	selectUsers = `SELECT username, stats FROM users ORDER BY username`

	// one row per category, in display order
	selectSuperlatives = `SELECT id, category, superlatives FROM superlatives ORDER BY position`
)

// filmRow is a films table row. Nested data is stored as jsonb.
type filmRow struct {
	FilmID       string          `db:"film_id"`
	FilmTitle    string          `db:"film_title"`
	FilmLink     sql.NullString  `db:"film_link"`
	AvgRating    sql.NullFloat64 `db:"avg_rating"`
	NumRatings   int             `db:"num_ratings"`
	NumWatches   int             `db:"num_watches"`
	NumLikes     int             `db:"num_likes"`
	LikeRatio    sql.NullFloat64 `db:"like_ratio"`
	StddevRating sql.NullFloat64 `db:"stddev_rating"`
	Metadata     []byte          `db:"metadata"`
	Reviews      []byte          `db:"reviews"`
	Watches      []byte          `db:"watches"`
}

type userRow struct {
	Username string `db:"username"`
	Stats    []byte `db:"stats"`
}

type superlativeRow struct {
	ID           string `db:"id"`
	Category     string `db:"category"`
	Superlatives []byte `db:"superlatives"`
}

// SQLStore reads the catalog from Postgres
type SQLStore struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func NewSQLStore(db *sqlx.DB, log zerolog.Logger) *SQLStore {
	return &SQLStore{db: db, log: log}
}

// Open connects to the database at dsn
func Open(dsn string, log zerolog.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return NewSQLStore(db, log), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Films(ctx context.Context) ([]catalog.Film, error) {
	var rows []filmRow
	if err := s.db.SelectContext(ctx, &rows, selectFilms); err != nil {
		return nil, fmt.Errorf("failed to query films: %w", err)
	}

	films := make([]catalog.Film, 0, len(rows))
	for _, r := range rows {
		f, err := r.film()
		if err != nil {
			return nil, err
		}
		films = append(films, f)
	}
	s.log.Debug().Int("count", len(films)).Msg("Loaded films")
	return films, nil
}

func (s *SQLStore) Film(ctx context.Context, id string) (catalog.Film, error) {
	var r filmRow
	if err := s.db.GetContext(ctx, &r, selectFilm, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Film{}, ErrFilmNotFound
		}
		return catalog.Film{}, fmt.Errorf("failed to query film %s: %w", id, err)
	}
	return r.film()
}

func (s *SQLStore) Users(ctx context.Context) ([]catalog.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, selectUsers); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users := make([]catalog.User, 0, len(rows))
	for _, r := range rows {
		u := catalog.User{Username: r.Username}
		if err := unmarshalColumn(r.Stats, &u.Stats); err != nil {
			return nil, fmt.Errorf("user %s stats: %w", r.Username, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *SQLStore) Superlatives(ctx context.Context) ([]catalog.SuperlativeCategory, error) {
	var rows []superlativeRow
	if err := s.db.SelectContext(ctx, &rows, selectSuperlatives); err != nil {
		return nil, fmt.Errorf("failed to query superlatives: %w", err)
	}

	categories := make([]catalog.SuperlativeCategory, 0, len(rows))
	for _, r := range rows {
		c := catalog.SuperlativeCategory{ID: r.ID, Category: r.Category}
		if err := unmarshalColumn(r.Superlatives, &c.Superlatives); err != nil {
			return nil, fmt.Errorf("superlative category %s: %w", r.Category, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r filmRow) film() (catalog.Film, error) {
	f := catalog.Film{
		FilmID:       r.FilmID,
		FilmTitle:    r.FilmTitle,
		FilmLink:     r.FilmLink.String,
		AvgRating:    nullFloat(r.AvgRating),
		NumRatings:   r.NumRatings,
		NumWatches:   r.NumWatches,
		NumLikes:     r.NumLikes,
		LikeRatio:    nullFloat(r.LikeRatio),
		StddevRating: nullFloat(r.StddevRating),
	}
	columns := []struct {
		name string
		raw  []byte
		dst  interface{}
	}{
		{"metadata", r.Metadata, &f.Metadata},
		{"reviews", r.Reviews, &f.Reviews},
		{"watches", r.Watches, &f.Watches},
	}
	for _, c := range columns {
		if err := unmarshalColumn(c.raw, c.dst); err != nil {
			return catalog.Film{}, fmt.Errorf("film %s %s: %w", r.FilmID, c.name, err)
		}
	}
	return f, nil
}

func unmarshalColumn(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
