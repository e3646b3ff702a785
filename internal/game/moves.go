// internal/game/moves.go
//
// Pseudo-legal move generation.
// Responsibilities:
//   - Per-kind destination sets via a switch over the closed Kind set.
//   - Single-step pieces (King, Knight, Pawn) use fixed offset tables.
//   - Sliding pieces (Rook, Bishop, Queen) use ray casting.
//
// Blocking rule shared by every ray: empty squares are included and the ray
// continues; an enemy square is included and the ray stops; a friendly square
// stops the ray and is not included.
//
// Squares are not filtered for king safety: a move that leaves the mover's own
// king attacked is still returned.

package game

import "sort"

// PositionSet is an unordered set of squares.
type PositionSet map[Position]struct{}

// Contains reports membership.
func (s PositionSet) Contains(p Position) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in rank-major order.
func (s PositionSet) Sorted() []Position {
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].File < out[j].File
	})
	return out
}

type offset struct{ dr, df int }

var (
	kingOffsets = []offset{
		{-1, -1}, {-1, 0}, {-1, 1},
		{0, -1}, {0, 1},
		{1, -1}, {1, 0}, {1, 1},
	}
	knightOffsets = []offset{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
	rookDirections   = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirections = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// ValidDestinations returns every square pc standing on from could move to on b.
// It never fails; an immobile piece yields an empty set.
func ValidDestinations(pc Piece, from Position, b *Board) PositionSet {
	dest := PositionSet{}
	switch pc.Kind {
	case King:
		step(dest, pc, from, b, kingOffsets)
	case Knight:
		step(dest, pc, from, b, knightOffsets)
	case Rook:
		cast(dest, pc, from, b, rookDirections)
	case Bishop:
		cast(dest, pc, from, b, bishopDirections)
	case Queen:
		cast(dest, pc, from, b, rookDirections)
		cast(dest, pc, from, b, bishopDirections)
	case Pawn:
		advance(dest, pc, from, b)
	}
	return dest
}

// canLand: on-board and either empty or enemy-occupied.
func canLand(pc Piece, to Position, b *Board) bool {
	occupant, ok := b.At(to)
	return !ok || occupant.Color != pc.Color
}

func step(dest PositionSet, pc Piece, from Position, b *Board, offsets []offset) {
	for _, o := range offsets {
		if to, ok := from.Translate(o.dr, o.df); ok && canLand(pc, to, b) {
			dest[to] = struct{}{}
		}
	}
}

func cast(dest PositionSet, pc Piece, from Position, b *Board, dirs []offset) {
	for _, d := range dirs {
		cur := from
		for {
			next, ok := cur.Translate(d.dr, d.df)
			if !ok {
				break
			}
			occupant, occupied := b.At(next)
			if occupied {
				if occupant.Color != pc.Color {
					dest[next] = struct{}{}
				}
				break
			}
			dest[next] = struct{}{}
			cur = next
		}
	}
}

// pawnDirection: White moves toward rank 0, Black toward rank 7.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

// advance covers the forward step and, for an unmoved pawn, the double step.
// Diagonal captures and en passant are not generated.
func advance(dest PositionSet, pc Piece, from Position, b *Board) {
	dir := pawnDirection(pc.Color)
	if to, ok := from.Translate(dir, 0); ok && canLand(pc, to, b) {
		dest[to] = struct{}{}
	}
	if pc.Moves == 0 {
		if to, ok := from.Translate(2*dir, 0); ok && canLand(pc, to, b) {
			dest[to] = struct{}{}
		}
	}
}
