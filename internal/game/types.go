// internal/game/types.go
//
// Core value types for the chess engine.
// Defines:
//   - Color: side owning a piece (White/Black), serialized as "W"/"B".
//   - Kind: closed set of piece kinds, serialized as "K","Q","B","N","R","P".
//   - Piece: (kind, color, move count) value; the board owns the live copy.

package game

import "fmt"

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// String returns the one-letter code used on the wire.
func (c Color) String() string {
	if c == White {
		return "W"
	}
	return "B"
}

// MarshalText lets Color act as a JSON map key ("W"/"B").
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses "W" or "B".
func (c *Color) UnmarshalText(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("color %q: %w", b, ErrInvalidPiece)
	}
	v, ok := colorFromByte(b[0])
	if !ok {
		return fmt.Errorf("color %q: %w", b, ErrInvalidPiece)
	}
	*c = v
	return nil
}

func colorFromByte(b byte) (Color, bool) {
	switch b {
	case 'W':
		return White, true
	case 'B':
		return Black, true
	}
	return White, false
}

// Kind is the piece type. The zero value marks an empty square.
type Kind uint8

const (
	noKind Kind = iota
	King
	Queen
	Bishop
	Knight
	Rook
	Pawn
)

var kindCodes = [...]byte{noKind: '.', King: 'K', Queen: 'Q', Bishop: 'B', Knight: 'N', Rook: 'R', Pawn: 'P'}

// String returns the one-letter kind code.
func (k Kind) String() string {
	if int(k) >= len(kindCodes) {
		return "?"
	}
	return string(kindCodes[k])
}

// Value is the conventional material value. Display only; never used for legality.
func (k Kind) Value() int {
	switch k {
	case Queen:
		return 9
	case Rook:
		return 5
	case Bishop, Knight:
		return 3
	case Pawn:
		return 1
	default:
		return 0
	}
}

func kindFromByte(b byte) (Kind, bool) {
	for k := King; k <= Pawn; k++ {
		if kindCodes[k] == b {
			return k, true
		}
	}
	return noKind, false
}

// Piece is a chess piece. Moves counts accepted moves made by this piece.
type Piece struct {
	Kind  Kind
	Color Color
	Moves int
}

// NewPiece returns an unmoved piece.
func NewPiece(k Kind, c Color) Piece { return Piece{Kind: k, Color: c} }

// IsZero reports whether p is the empty-square marker.
func (p Piece) IsZero() bool { return p.Kind == noKind }

// Value returns the material value of the piece's kind.
func (p Piece) Value() int { return p.Kind.Value() }

// String returns the two-character code, color first ("WK", "BP", ...).
func (p Piece) String() string { return p.Color.String() + p.Kind.String() }

// MarshalText encodes the piece as its two-character code.
func (p Piece) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return nil, fmt.Errorf("marshal empty piece: %w", ErrInvalidPiece)
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a two-character code. The move count is reset.
func (p *Piece) UnmarshalText(b []byte) error {
	v, err := ParsePiece(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePiece decodes a two-character code such as "WQ" or "BN".
func ParsePiece(s string) (Piece, error) {
	if len(s) != 2 {
		return Piece{}, fmt.Errorf("piece %q: %w", s, ErrInvalidPiece)
	}
	c, okC := colorFromByte(s[0])
	k, okK := kindFromByte(s[1])
	if !okC || !okK {
		return Piece{}, fmt.Errorf("piece %q: %w", s, ErrInvalidPiece)
	}
	return NewPiece(k, c), nil
}

// MustPiece is ParsePiece for literals; it panics on bad input.
func MustPiece(s string) Piece {
	p, err := ParsePiece(s)
	if err != nil {
		panic(err)
	}
	return p
}
