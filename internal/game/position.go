// internal/game/position.go
//
// Board coordinates.
// Rank 0 is Black's home rank and rank 7 is White's, so algebraic "A1" is
// (rank 7, file 0) and "E8" is (rank 0, file 4).

package game

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Size is the board dimension.
const Size = 8

// Position is a (rank, file) square. Use NewPosition or ParsePosition to build one.
type Position struct {
	Rank int
	File int
}

// NewPosition validates and returns a position.
func NewPosition(rank, file int) (Position, error) {
	if !onBoard(rank, file) {
		return Position{}, fmt.Errorf("(%d,%d): %w", rank, file, ErrInvalidPosition)
	}
	return Position{Rank: rank, File: file}, nil
}

// MustPosition is NewPosition for literals; it panics when out of range.
func MustPosition(rank, file int) Position {
	p, err := NewPosition(rank, file)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePosition reads two-character algebraic notation ("E4", case-insensitive file).
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("%q: %w", s, ErrInvalidNotation)
	}
	letter, digit := s[0], s[1]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'H' || digit < '1' || digit > '8' {
		return Position{}, fmt.Errorf("%q: %w", s, ErrInvalidNotation)
	}
	return Position{Rank: Size - int(digit-'0'), File: int(letter - 'A')}, nil
}

// MustParse is ParsePosition for literals.
func MustParse(s string) Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns algebraic notation.
func (p Position) String() string {
	if !p.valid() {
		return fmt.Sprintf("(%d,%d)", p.Rank, p.File)
	}
	return string([]byte{byte('A' + p.File), byte('0' + Size - p.Rank)})
}

// Translate offsets p by signed deltas; ok is false when the result leaves the board.
func (p Position) Translate(rankDelta, fileDelta int) (Position, bool) {
	r, f := p.Rank+rankDelta, p.File+fileDelta
	if !onBoard(r, f) {
		return Position{}, false
	}
	return Position{Rank: r, File: f}, true
}

func (p Position) valid() bool { return onBoard(p.Rank, p.File) }

func onBoard(rank, file int) bool {
	return rank >= 0 && rank < Size && file >= 0 && file < Size
}

// MarshalJSON writes the algebraic form.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts "E4" or a [rank, file] pair.
func (p *Position) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty position: %w", ErrInvalidNotation)
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%s: %w", err, ErrInvalidNotation)
		}
		v, err := ParsePosition(s)
		if err != nil {
			return err
		}
		*p = v
		return nil
	case '[':
		var pair []int
		if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("%s: expected [rank, file]: %w", data, ErrInvalidNotation)
		}
		v, err := NewPosition(pair[0], pair[1])
		if err != nil {
			return err
		}
		*p = v
		return nil
	}
	return fmt.Errorf("%s: %w", data, ErrInvalidNotation)
}
