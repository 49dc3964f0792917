// Package server exposes a catalog store over the HTTP query grammar the
// filmcatalog client speaks.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/field"
	"github.com/SanteonNL/filmcatalog/cmd/mockcatalog/query"
	"github.com/SanteonNL/filmcatalog/cmd/mockcatalog/store"
	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Server struct {
	store store.Store
	log   zerolog.Logger
}

func New(s store.Store, log zerolog.Logger) *Server {
	return &Server{store: s, log: log.With().Str("component", "server").Logger()}
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/films", s.handleFilms).Methods(http.MethodGet)
	r.HandleFunc("/films/{id}", s.handleFilm).Methods(http.MethodGet)
	r.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet)
	r.HandleFunc("/recommendations", s.handleRecommendations).Methods(http.MethodGet)
	r.HandleFunc("/superlatives", s.handleSuperlatives).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

func (s *Server) handleFilms(w http.ResponseWriter, r *http.Request) {
	c, err := query.Parse(field.Films(), r.URL.Query(), query.FilmSort)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	films, err := s.store.Films(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	res := query.Apply(films, query.Films, c)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"films":       res.Items,
		"total_films": res.TotalItems,
		"total_pages": res.TotalPages,
	})
}

func (s *Server) handleFilm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	film, err := s.store.Film(r.Context(), id)
	if errors.Is(err, store.ErrFilmNotFound) {
		s.writeError(w, http.StatusNotFound, "film not found")
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, film)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	c, err := query.Parse(field.Users(), r.URL.Query(), query.UserSort)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	users, err := s.store.Users(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	res := query.Apply(users, query.Users, c)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":       res.Items,
		"total_users": res.TotalItems,
		"total_pages": res.TotalPages,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	rec, err := query.ParseRecommend(v)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	c, err := query.Parse(field.Films(), v, query.FilmSort, query.RecommendParams...)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	films, err := s.store.Films(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	recs := query.Recommendations(query.Filter(films, query.Films, c), rec)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

func (s *Server) handleSuperlatives(w http.ResponseWriter, r *http.Request) {
	sups, err := s.store.Superlatives(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if sups == nil {
		sups = []catalog.SuperlativeCategory{}
	}
	s.writeJSON(w, http.StatusOK, sups)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	var bad *query.BadRequestError
	if errors.As(err, &bad) {
		s.writeError(w, http.StatusBadRequest, bad.Error())
		return
	}
	s.writeStoreError(w, err)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("Store failure")
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}
