// internal/httpserver/routes_archive.go
//
// Read-only access to the move archive, admin-guarded:
//   - GET /archive/games?limit=N       → archived games, newest first
//   - GET /archive/games/{id}/moves    → archived plies of one game
//
// Both answer 503 when the server runs without an archive.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// mountArchive registers the /archive routes.
func (s *Server) mountArchive(r chi.Router) {
	r.Route("/archive", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Use(s.requireArchive)
		r.Get("/games", s.handleArchiveGames)
		r.Get("/games/{id}/moves", s.handleArchiveMoves)
	})
}

func (s *Server) requireArchive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.archive == nil {
			writeError(w, http.StatusServiceUnavailable, "archive_disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleArchiveGames(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	rows, err := s.archive.Games(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("archive games")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleArchiveMoves(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	rows, err := s.archive.Moves(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("gameId", id).Msg("archive moves")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
