package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/chess-server/internal/game"
)

func TestBoardSVGStartingPosition(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BoardSVG(&buf, game.StartingBoard(), Options{Title: "start"}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<?xml"))
	assert.Contains(t, out, "<title>start</title>")
	assert.Equal(t, 64, strings.Count(out, lightSquare)+strings.Count(out, darkSquare))
	assert.Equal(t, 32, strings.Count(out, lightSquare))
	assert.Equal(t, 8, strings.Count(out, "♟"), "black pawns")
	assert.Equal(t, 8, strings.Count(out, "♙"), "white pawns")
	assert.Equal(t, 1, strings.Count(out, "♔"), "white king")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestBoardSVGHighlights(t *testing.T) {
	g := game.New("")
	mv, err := g.AttemptMove(game.MustParse("E2"), game.MustParse("E4"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, BoardSVG(&buf, g.Board(), Options{
		LastMove: &mv,
		Targets:  g.ValidMovesFrom(game.MustParse("G8")),
	}))
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, lastMoveStyle))
	assert.Equal(t, 2, strings.Count(out, targetStyle), "knight on G8 reaches F6 and H6")
}

func TestBoardSVGEmptyBoard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BoardSVG(&buf, game.Board{}, Options{}))
	assert.NotContains(t, buf.String(), "♔")
	assert.NotContains(t, buf.String(), "<title>")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBoardSVGReportsWriteErrors(t *testing.T) {
	err := BoardSVG(failingWriter{}, game.StartingBoard(), Options{})
	assert.ErrorContains(t, err, "disk full")
}
