// Package store loads the films and users served by the mock catalog.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/rs/zerolog"
)

var ErrFilmNotFound = errors.New("film not found")

type Store interface {
	Films(ctx context.Context) ([]catalog.Film, error)
	Film(ctx context.Context, id string) (catalog.Film, error)
	Users(ctx context.Context) ([]catalog.User, error)
	Superlatives(ctx context.Context) ([]catalog.SuperlativeCategory, error)
}

// Fixture is the on-disk layout of a FileStore
type Fixture struct {
	Films        []catalog.Film                `json:"films"`
	Users        []catalog.User                `json:"users"`
	Superlatives []catalog.SuperlativeCategory `json:"superlatives"`
}

// FileStore serves a fixture held in memory
type FileStore struct {
	data Fixture
	log  zerolog.Logger
}

func NewFileStore(data Fixture, log zerolog.Logger) *FileStore {
	return &FileStore{data: data, log: log}
}

// LoadFile reads a JSON fixture
func LoadFile(path string, log zerolog.Logger) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var data Fixture
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	log.Info().
		Str("file", path).
		Int("films", len(data.Films)).
		Int("users", len(data.Users)).
		Int("superlatives", len(data.Superlatives)).
		Msg("Loaded fixture")
	return NewFileStore(data, log), nil
}

func (s *FileStore) Films(context.Context) ([]catalog.Film, error) {
	out := make([]catalog.Film, len(s.data.Films))
	copy(out, s.data.Films)
	return out, nil
}

func (s *FileStore) Film(_ context.Context, id string) (catalog.Film, error) {
	for _, f := range s.data.Films {
		if f.FilmID == id {
			return f, nil
		}
	}
	return catalog.Film{}, ErrFilmNotFound
}

func (s *FileStore) Users(context.Context) ([]catalog.User, error) {
	out := make([]catalog.User, len(s.data.Users))
	copy(out, s.data.Users)
	return out, nil
}

func (s *FileStore) Superlatives(context.Context) ([]catalog.SuperlativeCategory, error) {
	out := make([]catalog.SuperlativeCategory, len(s.data.Superlatives))
	copy(out, s.data.Superlatives)
	return out, nil
}
