// internal/game/engine.go
//
// Game state machine for a single chess game.
// Responsibilities:
//   - Create games on the standard starting board (or a supplied board).
//   - Validate and apply moves: piece present, side to move, destination legal.
//   - Derive turn from the move history length (even = White).
//   - Answer check queries by generating every piece's destinations.
//
// Notes:
//   - Every exported method takes the game's own mutex for its whole duration,
//     so one game's operations are totally ordered while different games
//     proceed independently.
//   - A rejected move leaves board and history untouched.

package game

import (
	"fmt"
	"sync"
	"time"
)

// Move is one accepted history entry. Ply is its 1-based index in the history.
// Piece is the mover after its move count was incremented; Captured is the
// piece that stood on To, if any.
type Move struct {
	Ply      int      `json:"ply"`
	From     Position `json:"from"`
	To       Position `json:"to"`
	Piece    Piece    `json:"piece"`
	Captured *Piece   `json:"captured,omitempty"`
}

// Game is a live game. It must be shared by pointer.
type Game struct {
	ID        string    // External identifier; empty for unregistered games.
	CreatedAt time.Time // UTC creation instant.

	mu    sync.Mutex
	board Board
	moves []Move
}

// New constructs a game on the standard starting board.
func New(id string) *Game {
	return NewFromBoard(id, StartingBoard())
}

// NewFromBoard constructs a game with an arbitrary arrangement and empty history.
// White moves first.
func NewFromBoard(id string, b Board) *Game {
	return &Game{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		board:     b,
		moves:     []Move{},
	}
}

// Replay rebuilds a game from the starting board by re-applying history.
// Only From and To of each entry are consulted.
func Replay(id string, createdAt time.Time, history []Move) (*Game, error) {
	g := New(id)
	g.CreatedAt = createdAt.UTC()
	for i, m := range history {
		if _, err := g.AttemptMove(m.From, m.To); err != nil {
			return nil, fmt.Errorf("replay ply %d: %w", i+1, err)
		}
	}
	return g, nil
}

// AttemptMove moves the piece on from to to, capturing any enemy piece there.
// Failures are *MoveError wrapping ErrPieceNotFound, ErrOutOfTurn or ErrIllegalMove.
func (g *Game) AttemptMove(from, to Position) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pc, ok := g.board.At(from)
	if !ok {
		return Move{}, &MoveError{From: from, To: to, Err: ErrPieceNotFound}
	}
	if pc.Color != turnFor(len(g.moves)) {
		return Move{}, &MoveError{From: from, To: to, Err: ErrOutOfTurn}
	}
	if !ValidDestinations(pc, from, &g.board).Contains(to) {
		return Move{}, &MoveError{From: from, To: to, Err: ErrIllegalMove}
	}

	pc.Moves++
	mv := Move{Ply: len(g.moves) + 1, From: from, To: to, Piece: pc}
	if victim, ok := g.board.At(to); ok {
		mv.Captured = &victim
	}
	g.board.Clear(from)
	g.board.Set(to, pc)
	g.moves = append(g.moves, mv)
	return mv, nil
}

// Turn is the side to move.
func (g *Game) Turn() Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return turnFor(len(g.moves))
}

// MoveCount is the number of accepted moves.
func (g *Game) MoveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.moves)
}

// Board returns a copy of the current board.
func (g *Game) Board() Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board
}

// PieceAt returns the piece on p.
func (g *Game) PieceAt(p Position) (Piece, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.At(p)
}

// Moves returns a copy of the move history.
func (g *Game) Moves() []Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Move, len(g.moves))
	copy(out, g.moves)
	return out
}

// IsInCheck reports whether any piece on the board can land on c's king.
func (g *Game) IsInCheck(c Color) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return InCheck(&g.board, c)
}

// ValidMovesFrom lists the destinations of the piece on p, sorted.
// An empty square yields an empty list.
func (g *Game) ValidMovesFrom(p Position) []Position {
	g.mu.Lock()
	defer g.mu.Unlock()
	pc, ok := g.board.At(p)
	if !ok {
		return []Position{}
	}
	return ValidDestinations(pc, p, &g.board).Sorted()
}

// InCheck scans all 64 squares: c is in check when some piece's destination
// set contains the square of c's king.
func InCheck(b *Board, c Color) bool {
	for r := 0; r < Size; r++ {
		for f := 0; f < Size; f++ {
			from := Position{Rank: r, File: f}
			pc, ok := b.At(from)
			if !ok {
				continue
			}
			for to := range ValidDestinations(pc, from, b) {
				if target, ok := b.At(to); ok && target.Kind == King && target.Color == c {
					return true
				}
			}
		}
	}
	return false
}

func turnFor(moveCount int) Color {
	if moveCount%2 == 0 {
		return White
	}
	return Black
}
