package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/chess-server/internal/archive"
	"github.com/robalobadob/chess-server/internal/game"
	"github.com/robalobadob/chess-server/internal/store"
)

const testSecret = "test-admin-secret"

func newTestServer(t *testing.T, opts Options, arc *archive.Archive) *Server {
	t.Helper()
	return New(store.NewMemoryStore(), arc, opts)
}

func do(t *testing.T, s *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createGame(t *testing.T, s *Server) game.Snapshot {
	t.Helper()
	rec := do(t, s, http.MethodPut, "/game", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[game.Snapshot](t, rec)
}

func move(t *testing.T, s *Server, id, from, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, http.MethodPost, "/game/"+id+"/"+from+"/move", body)
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["error"].(string)
}

// -----------------------------------------------------------------------------

func TestVersionAndHealth(t *testing.T) {
	s := newTestServer(t, Options{Version: "1.4.0"}, nil)

	for _, path := range []string{"/version", "/details"} {
		rec := do(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]string{"version": "1.4.0"}, decode[map[string]string](t, rec))
	}

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestCreateAndFetchGame(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	snap := createGame(t, s)

	_, err := uuid.Parse(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.MovesCount)
	assert.Equal(t, game.White, snap.Turn)
	assert.Equal(t, map[game.Color]bool{game.White: false, game.Black: false}, snap.InCheck)
	require.NotNil(t, snap.Board[7][4])
	assert.Equal(t, "WK", snap.Board[7][4].String())
	assert.Nil(t, snap.Board[4][4])
	assert.InDelta(t, time.Now().UnixMilli(), snap.CreatedAt, float64(time.Minute.Milliseconds()))

	rec := do(t, s, http.MethodGet, "/game/"+snap.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snap.ID, decode[game.Snapshot](t, rec).ID)

	// ids are canonicalised before lookup
	rec = do(t, s, http.MethodGet, "/game/"+strings.ToUpper(snap.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/game", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/games", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]game.Snapshot](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, snap.ID, list[0].ID, "oldest first")
}

func TestGameLookupErrors(t *testing.T) {
	s := newTestServer(t, Options{}, nil)

	rec := do(t, s, http.MethodGet, "/game/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/game/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, store.ErrNotFound.Error(), errorOf(t, rec))

	rec = move(t, s, uuid.NewString(), "E2", `"E4"`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveFlow(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	id := createGame(t, s).ID

	rec := move(t, s, id, "E2", `"E4"`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[game.Snapshot](t, rec)
	assert.Equal(t, 1, snap.MovesCount)
	assert.Equal(t, game.Black, snap.Turn)
	assert.Nil(t, snap.Board[6][4])
	require.NotNil(t, snap.Board[4][4])
	assert.Equal(t, "WP", snap.Board[4][4].String())

	// [rank,file] form on both sides: D7 -> D5
	rec = move(t, s, id, "%5B1,3%5D", `[3,3]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[game.Snapshot](t, rec).MovesCount)

	rec = do(t, s, http.MethodGet, "/game/"+id+"/moves", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[[]game.Move](t, rec)
	require.Len(t, hist, 2)
	assert.Equal(t, game.MustParse("E2"), hist[0].From)
	assert.Equal(t, game.MustParse("D5"), hist[1].To)
	assert.Equal(t, 2, hist[1].Ply)
}

func TestMoveRejections(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	id := createGame(t, s).ID

	tests := []struct {
		name   string
		from   string
		body   string
		status int
		err    string
	}{
		{"empty square", "E4", `"E5"`, http.StatusNotFound, game.ErrPieceNotFound.Error()},
		{"out of turn", "E7", `"E5"`, http.StatusBadRequest, game.ErrOutOfTurn.Error()},
		{"illegal", "E2", `"E5"`, http.StatusBadRequest, game.ErrIllegalMove.Error()},
		{"friendly capture", "A1", `"A2"`, http.StatusBadRequest, game.ErrIllegalMove.Error()},
		{"off-board destination", "E2", `[8,4]`, http.StatusBadRequest, ""},
		{"bad path position", "Z9", `"E4"`, http.StatusBadRequest, ""},
		{"bad body", "E2", `{"to":"E4"}`, http.StatusBadRequest, ""},
		{"empty body", "E2", ``, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := move(t, s, id, tt.from, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.err != "" {
				assert.Equal(t, tt.err, errorOf(t, rec))
			}
		})
	}

	rec := do(t, s, http.MethodGet, "/game/"+id, "")
	snap := decode[game.Snapshot](t, rec)
	assert.Equal(t, 0, snap.MovesCount, "rejected moves leave the game unchanged")
}

func TestValidMovesAndBoardSVG(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	id := createGame(t, s).ID

	rec := do(t, s, http.MethodGet, "/game/"+id+"/moves/G1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []game.Position{game.MustParse("F3"), game.MustParse("H3")}, decode[[]game.Position](t, rec))

	rec = do(t, s, http.MethodGet, "/game/"+id+"/moves/E4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/game/"+id+"/moves/Q1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/game/"+id+"/board.svg?from=G1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
	assert.Contains(t, rec.Body.String(), "♔")
}

func TestDeleteWithoutAdminSecret(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	id := createGame(t, s).ID

	rec := do(t, s, http.MethodDelete, "/game/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/game/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/game/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRequiresAdminToken(t *testing.T) {
	s := newTestServer(t, Options{AdminSecret: testSecret}, nil)
	id := createGame(t, s).ID

	rec := do(t, s, http.MethodDelete, "/game/"+id, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, _, err := SignAdminToken("some-other-secret", time.Hour)
	require.NoError(t, err)
	rec = do(t, s, http.MethodDelete, "/game/"+id, "", "Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, _, err := SignAdminToken(testSecret, -time.Minute)
	require.NoError(t, err)
	rec = do(t, s, http.MethodDelete, "/game/"+id, "", "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, exp, err := SignAdminToken(testSecret, time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	rec = do(t, s, http.MethodDelete, "/game/"+id, "", "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSignAdminTokenRequiresSecret(t *testing.T) {
	_, _, err := SignAdminToken("", time.Hour)
	assert.Error(t, err)
}

func TestArchiveRoutes(t *testing.T) {
	arc, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Close() })

	s := newTestServer(t, Options{AdminSecret: testSecret}, arc)
	tok, _, err := SignAdminToken(testSecret, time.Hour)
	require.NoError(t, err)
	auth := []string{"Authorization", "Bearer " + tok}

	id := createGame(t, s).ID
	require.Equal(t, http.StatusOK, move(t, s, id, "G1", `"F3"`).Code)
	require.Equal(t, http.StatusOK, move(t, s, id, "B8", `"C6"`).Code)

	rec := do(t, s, http.MethodGet, "/archive/games", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/archive/games?limit=10", "", auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	games := decode[[]archive.GameRow](t, rec)
	require.Len(t, games, 1)
	assert.Equal(t, id, games[0].ID)
	assert.Equal(t, 2, games[0].MovesCount)

	rec = do(t, s, http.MethodGet, "/archive/games?limit=0", "", auth...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// history survives deletion from the live registry
	require.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/game/"+id, "", auth...).Code)
	rec = do(t, s, http.MethodGet, "/archive/games/"+id+"/moves", "", auth...)
	require.Equal(t, http.StatusOK, rec.Code)
	moves := decode[[]archive.MoveRow](t, rec)
	require.Len(t, moves, 2)
	assert.Equal(t, game.MustParse("C6"), moves[1].To)
	assert.Equal(t, "BN", moves[1].Piece.String())
}

func TestArchiveDisabled(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := do(t, s, http.MethodGet, "/archive/games", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// conflictStore accepts creation but reports a lost race on every later save.
type conflictStore struct {
	store.Store
}

func (c conflictStore) Save(ctx context.Context, g *game.Game) error {
	if g.MoveCount() > 0 {
		return store.ErrConflict
	}
	return c.Store.Save(ctx, g)
}

func TestMoveConflictIs409(t *testing.T) {
	s := New(conflictStore{store.NewMemoryStore()}, nil, Options{})
	id := createGame(t, s).ID

	rec := move(t, s, id, "E2", `"E4"`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, store.ErrConflict.Error(), errorOf(t, rec))

	// the memory registry shares its handle, so the move is already applied
	rec = do(t, s, http.MethodGet, "/game/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[game.Snapshot](t, rec).MovesCount)
}

// deletingStore removes a game right after handing out its handle, as a
// DELETE racing with a move would.
type deletingStore struct {
	store.Store
}

func (d deletingStore) Get(ctx context.Context, id string) (*game.Game, error) {
	g, err := d.Store.Get(ctx, id)
	if err == nil {
		_ = d.Store.Delete(ctx, id)
	}
	return g, err
}

func TestMoveOnConcurrentlyDeletedGameIs404(t *testing.T) {
	mem := store.NewMemoryStore()
	s := New(deletingStore{mem}, nil, Options{})
	id := createGame(t, s).ID

	rec := move(t, s, id, "E2", `"E4"`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, store.ErrNotFound.Error(), errorOf(t, rec))

	_, err := mem.Get(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound, "the move must not re-register the game")
}

func TestRoutesRegistered(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	got := map[string]bool{}
	err := chi.Walk(s.Router(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got[method+" "+strings.TrimSuffix(route, "/")] = true
		return nil
	})
	require.NoError(t, err)

	for _, want := range []string{
		"GET /version",
		"GET /details",
		"GET /games",
		"PUT /game",
		"POST /game",
		"GET /game/{id}",
		"DELETE /game/{id}",
		"POST /game/{id}/{position}/move",
		"GET /game/{id}/moves",
		"GET /game/{id}/moves/{position}",
		"GET /game/{id}/board.svg",
		"GET /archive/games",
		"GET /archive/games/{id}/moves",
	} {
		assert.True(t, got[want], want)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{ClientOrigin: "https://chess.example"}, nil)
	rec := do(t, s, http.MethodOptions, "/game", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://chess.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
