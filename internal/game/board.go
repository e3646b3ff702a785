package game

// Board is the 8x8 grid indexed [rank][file]. A zero Piece is an empty square.
// Board is a plain value: assigning it copies every square.
type Board [Size][Size]Piece

var backRank = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartingBoard returns the standard opening arrangement.
func StartingBoard() Board {
	var b Board
	for f := 0; f < Size; f++ {
		b[0][f] = NewPiece(backRank[f], Black)
		b[1][f] = NewPiece(Pawn, Black)
		b[6][f] = NewPiece(Pawn, White)
		b[7][f] = NewPiece(backRank[f], White)
	}
	return b
}

// At returns the piece on p. Off-board positions read as empty.
func (b *Board) At(p Position) (Piece, bool) {
	if !p.valid() {
		return Piece{}, false
	}
	pc := b[p.Rank][p.File]
	return pc, !pc.IsZero()
}

// Set places pc on p, replacing any occupant. Off-board positions are ignored.
func (b *Board) Set(p Position, pc Piece) {
	if p.valid() {
		b[p.Rank][p.File] = pc
	}
}

// Clear empties p. Off-board positions are ignored.
func (b *Board) Clear(p Position) {
	if p.valid() {
		b[p.Rank][p.File] = Piece{}
	}
}

// Each calls fn for every occupied square in rank-major order.
func (b *Board) Each(fn func(Position, Piece)) {
	for r := 0; r < Size; r++ {
		for f := 0; f < Size; f++ {
			if pc := b[r][f]; !pc.IsZero() {
				fn(Position{Rank: r, File: f}, pc)
			}
		}
	}
}

// Material sums the values of c's pieces.
func (b *Board) Material(c Color) int {
	total := 0
	b.Each(func(_ Position, pc Piece) {
		if pc.Color == c {
			total += pc.Value()
		}
	})
	return total
}

// TileColor is the square color by parity: equal rank and file parity is light.
func TileColor(rank, file int) Color {
	if rank%2 == file%2 {
		return White
	}
	return Black
}
