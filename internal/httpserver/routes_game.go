// internal/httpserver/routes_game.go
//
// HTTP routes for live games.
//   - GET    /games                          → snapshots of every game, oldest first
//   - PUT    /game  (also POST)              → create a game on the starting board
//   - GET    /game/{id}                      → snapshot
//   - DELETE /game/{id}                      → remove (admin)
//   - POST   /game/{id}/{position}/move      → body is the destination ("E4" or [rank,file])
//   - GET    /game/{id}/moves                → accepted history
//   - GET    /game/{id}/moves/{position}     → valid destinations of the piece on position
//   - GET    /game/{id}/board.svg            → rendered board
//
// Positions in the path may be algebraic ("E2") or a [rank,file] pair ("[6,4]").
// Game ids are UUIDs; anything else is a bad request.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/chess-server/internal/game"
	"github.com/robalobadob/chess-server/internal/render"
	"github.com/robalobadob/chess-server/internal/store"
)

// maxMoveBody bounds the move request body.
const maxMoveBody = 1 << 10

// mountGames registers the /games and /game routes.
func (s *Server) mountGames(r chi.Router) {
	r.Get("/games", s.handleListGames)
	r.Put("/game", s.handleNewGame)
	r.Post("/game", s.handleNewGame)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.With(s.requireAdmin).Delete("/", s.handleDeleteGame)
		r.Post("/{position}/move", s.handleMove)
		r.Get("/moves", s.handleHistory)
		r.Get("/moves/{position}", s.handleValidMoves)
		r.Get("/board.svg", s.handleBoardSVG)
	})
}

// -----------------------------------------------------------------------------
// registry

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list games")
		writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	out := make([]game.Snapshot, 0, len(games))
	for _, g := range games {
		out = append(out, g.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleNewGame creates a game under a fresh UUID and records it in the archive.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	g := game.New(uuid.NewString())
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	// Archive writes are best effort.
	if err := s.archive.RecordGame(r.Context(), g.ID, g.CreatedAt); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("archive game")
	}
	log.Info().Str("gameId", g.ID).Msg("game created")
	writeJSON(w, http.StatusCreated, g.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Error().Err(err).Str("gameId", id).Msg("delete game")
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	if err := s.archive.MarkDeleted(r.Context(), id); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("archive delete")
	}
	log.Info().Str("gameId", id).Msg("game deleted")
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// moves

// handleMove applies one move. The origin comes from the path, the destination
// from the body.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGame(w, r)
	if !ok {
		return
	}
	from, err := pathPosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var to game.Position
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMoveBody)).Decode(&to); err != nil {
		writeError(w, http.StatusBadRequest, "invalid destination: "+err.Error())
		return
	}

	mv, err := g.AttemptMove(from, to)
	if err != nil {
		log.Debug().Err(err).Str("gameId", g.ID).Msg("move rejected")
		writeMoveError(w, err)
		return
	}
	// The memory store hands out the shared handle, so the move is already
	// visible there when Save fails; the redis store discards the rejected handle.
	if err := s.store.Save(r.Context(), g); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Error().Err(err).Str("gameId", g.ID).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if err := s.archive.RecordMove(r.Context(), g.ID, mv); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Int("ply", mv.Ply).Msg("archive move")
	}
	log.Info().
		Str("gameId", g.ID).
		Int("ply", mv.Ply).
		Str("piece", mv.Piece.String()).
		Str("from", mv.From.String()).
		Str("to", mv.To.String()).
		Bool("capture", mv.Captured != nil).
		Msg("move applied")
	writeJSON(w, http.StatusOK, g.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g.Moves())
}

func (s *Server) handleValidMoves(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGame(w, r)
	if !ok {
		return
	}
	from, err := pathPosition(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g.ValidMovesFrom(from))
}

func (s *Server) handleBoardSVG(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGame(w, r)
	if !ok {
		return
	}
	opts := render.Options{Title: "game " + g.ID}
	if moves := g.Moves(); len(moves) > 0 {
		opts.LastMove = &moves[len(moves)-1]
	}
	if sq := r.URL.Query().Get("from"); sq != "" {
		if from, err := parsePosition(sq); err == nil {
			opts.Targets = g.ValidMovesFrom(from)
		}
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if err := render.BoardSVG(w, g.Board(), opts); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("render board")
	}
}

// -----------------------------------------------------------------------------
// helpers

// gameID validates the {id} path parameter and returns it in canonical form.
func gameID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return "", false
	}
	return id.String(), true
}

// loadGame resolves {id} to a registered game, writing 400/404 on failure.
func (s *Server) loadGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	id, ok := gameID(w, r)
	if !ok {
		return nil, false
	}
	g, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return nil, false
		}
		log.Error().Err(err).Str("gameId", id).Msg("load game")
		writeError(w, http.StatusInternalServerError, "load_failed")
		return nil, false
	}
	return g, true
}

// pathPosition reads the {position} path parameter.
func pathPosition(r *http.Request) (game.Position, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "position"))
	if err != nil {
		return game.Position{}, game.ErrInvalidNotation
	}
	return parsePosition(raw)
}

// parsePosition accepts "E2" or "[6,4]".
func parsePosition(s string) (game.Position, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var p game.Position
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return game.Position{}, err
		}
		return p, nil
	}
	return game.ParsePosition(s)
}

// writeMoveError maps a rejected move to its status. A missing piece is a
// not-found; moving out of turn or illegally is a bad request.
func writeMoveError(w http.ResponseWriter, err error) {
	var me *game.MoveError
	if !errors.As(err, &me) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := http.StatusBadRequest
	if errors.Is(me, game.ErrPieceNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{
		"error": me.Err.Error(),
		"from":  me.From,
		"to":    me.To,
	})
}
