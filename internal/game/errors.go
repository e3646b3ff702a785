package game

import (
	"errors"
	"fmt"
)

// Sentinel errors. Move rejections arrive wrapped in *MoveError.
var (
	ErrInvalidPosition = errors.New("position out of range")
	ErrInvalidNotation = errors.New("invalid position notation")
	ErrInvalidPiece    = errors.New("invalid piece notation")

	ErrPieceNotFound = errors.New("no piece found at the specified position")
	ErrOutOfTurn     = errors.New("cannot move out of turn")
	ErrIllegalMove   = errors.New("illegal move")
)

// MoveError records a rejected move. The board is unchanged when one is returned.
type MoveError struct {
	From Position
	To   Position
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%s-%s: %v", e.From, e.To, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }
