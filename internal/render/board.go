// internal/render/board.go
//
// SVG rendering of a board.
// Responsibilities:
//   - Squares coloured by TileColor, rank 8 at the top.
//   - Pieces drawn as Unicode chess glyphs.
//   - Optional highlights (last move, candidate destinations) and coordinates.

package render

import (
	"fmt"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/robalobadob/chess-server/internal/game"
)

const (
	squareSize = 64
	margin     = 24
	boardSize  = squareSize * game.Size
	canvasSize = boardSize + margin*2
)

const (
	lightSquare    = "fill:#e9cfa3"
	darkSquare     = "fill:#bb8860"
	lastMoveStyle  = "fill:#ffe478;fill-opacity:0.55"
	targetStyle    = "fill:#3c8c5a;fill-opacity:0.45"
	coordStyle     = "font-family:sans-serif;font-size:14px;fill:#555;text-anchor:middle"
	whitePieceText = "font-size:48px;text-anchor:middle;dominant-baseline:central;fill:#fff;stroke:#222;stroke-width:1"
	blackPieceText = "font-size:48px;text-anchor:middle;dominant-baseline:central;fill:#111"
)

var glyphs = map[game.Kind][2]string{
	game.King:   {"♔", "♚"},
	game.Queen:  {"♕", "♛"},
	game.Rook:   {"♖", "♜"},
	game.Bishop: {"♗", "♝"},
	game.Knight: {"♘", "♞"},
	game.Pawn:   {"♙", "♟"},
}

// Options tweaks a rendering. The zero value draws the bare board.
type Options struct {
	Title    string
	LastMove *game.Move
	Targets  []game.Position
}

// BoardSVG writes b as a standalone SVG document to w.
func BoardSVG(w io.Writer, b game.Board, opts Options) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(canvasSize, canvasSize)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}

	canvas.Gid("squares")
	for rank := 0; rank < game.Size; rank++ {
		for file := 0; file < game.Size; file++ {
			x, y := origin(game.Position{Rank: rank, File: file})
			style := darkSquare
			if game.TileColor(rank, file) == game.White {
				style = lightSquare
			}
			canvas.Rect(x, y, squareSize, squareSize, style)
		}
	}
	canvas.Gend()

	if m := opts.LastMove; m != nil {
		for _, p := range []game.Position{m.From, m.To} {
			x, y := origin(p)
			canvas.Rect(x, y, squareSize, squareSize, lastMoveStyle)
		}
	}
	for _, p := range opts.Targets {
		x, y := origin(p)
		canvas.Circle(x+squareSize/2, y+squareSize/2, squareSize/6, targetStyle)
	}

	canvas.Gid("pieces")
	b.Each(func(p game.Position, pc game.Piece) {
		g, ok := glyphs[pc.Kind]
		if !ok {
			return
		}
		x, y := origin(p)
		style := whitePieceText
		text := g[0]
		if pc.Color == game.Black {
			style = blackPieceText
			text = g[1]
		}
		canvas.Text(x+squareSize/2, y+squareSize/2, text, style)
	})
	canvas.Gend()

	canvas.Gid("coordinates")
	for i := 0; i < game.Size; i++ {
		file := string(rune('a' + i))
		canvas.Text(margin+i*squareSize+squareSize/2, canvasSize-margin/3, file, coordStyle)
		rank := strconv.Itoa(game.Size - i)
		canvas.Text(margin/2, margin+i*squareSize+squareSize/2+5, rank, coordStyle)
	}
	canvas.Gend()

	canvas.End()
	if ew.err != nil {
		return fmt.Errorf("write svg: %w", ew.err)
	}
	return nil
}

// origin is the top-left pixel of p's square.
func origin(p game.Position) (int, int) {
	return margin + p.File*squareSize, margin + p.Rank*squareSize
}

// errWriter remembers the first write error; svgo discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
