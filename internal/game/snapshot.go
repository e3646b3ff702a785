package game

import "encoding/json"

// Snapshot is the serialized view of a game handed to clients.
type Snapshot struct {
	ID string `json:"id,omitempty"`
	// Board cells hold a piece code or null.
	Board [Size][Size]*Piece `json:"board"`
	// CreatedAt is unix milliseconds.
	CreatedAt  int64          `json:"created_at"`
	InCheck    map[Color]bool `json:"is_player_in_check"`
	MovesCount int            `json:"moves_count"`
	Turn       Color          `json:"turn"`
	Material   map[Color]int  `json:"material"`
}

// Snapshot captures a consistent view under the game lock.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		ID:         g.ID,
		CreatedAt:  g.CreatedAt.UnixMilli(),
		MovesCount: len(g.moves),
		Turn:       turnFor(len(g.moves)),
		InCheck: map[Color]bool{
			White: InCheck(&g.board, White),
			Black: InCheck(&g.board, Black),
		},
		Material: map[Color]int{
			White: g.board.Material(White),
			Black: g.board.Material(Black),
		},
	}
	g.board.Each(func(p Position, pc Piece) {
		s.Board[p.Rank][p.File] = &pc
	})
	return s
}

// MarshalJSON renders the snapshot.
func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}
