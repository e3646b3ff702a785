// internal/archive/archive.go
//
// Durable record of every game and accepted move.
// Responsibilities:
//   - Recording game creation, each accepted move and deletions.
//   - Serving archived history after a game has left the live registry.
//
// A nil *Archive is valid and records nothing, so callers never branch on
// whether archiving is configured.

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robalobadob/chess-server/assets"
	"github.com/robalobadob/chess-server/internal/game"
)

// Archive wraps the SQLite handle.
type Archive struct {
	db *sql.DB
}

// GameRow is one archived game.
type GameRow struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	MovesCount int        `json:"moves_count"`
}

// MoveRow is one archived ply.
type MoveRow struct {
	Ply      int           `json:"ply"`
	From     game.Position `json:"from"`
	To       game.Position `json:"to"`
	Piece    game.Piece    `json:"piece"`
	Captured *game.Piece   `json:"captured,omitempty"`
	PlayedAt time.Time     `json:"played_at"`
}

// Open opens dsn and applies the embedded migrations.
func Open(dsn string) (*Archive, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}

// RecordGame stores a newly created game. Recording the same id twice is a no-op.
func (a *Archive) RecordGame(ctx context.Context, id string, createdAt time.Time) error {
	if a == nil {
		return nil
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (id, created_at) VALUES (?, ?)`,
		id, createdAt.UnixMilli(),
	)
	return err
}

// RecordMove stores m under game id, keyed by m.Ply. A game row is created on
// demand for games that predate the archive.
func (a *Archive) RecordMove(ctx context.Context, id string, m game.Move) error {
	if a == nil {
		return nil
	}
	now := time.Now().UTC().UnixMilli()

	var captured sql.NullString
	if m.Captured != nil {
		captured = sql.NullString{String: m.Captured.String(), Valid: true}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (id, created_at) VALUES (?, ?)`, id, now,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO moves
            (game_id, ply, from_sq, to_sq, piece, captured, played_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, m.Ply, m.From.String(), m.To.String(), m.Piece.String(), captured, now,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkDeleted stamps the deletion time; the history stays queryable.
func (a *Archive) MarkDeleted(ctx context.Context, id string) error {
	if a == nil {
		return nil
	}
	_, err := a.db.ExecContext(ctx,
		`UPDATE games SET deleted_at=? WHERE id=? AND deleted_at IS NULL`,
		time.Now().UTC().UnixMilli(), id,
	)
	return err
}

// Games lists archived games, newest first. Default limit is 50.
func (a *Archive) Games(ctx context.Context, limit int) ([]GameRow, error) {
	out := []GameRow{}
	if a == nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT g.id, g.created_at, g.deleted_at, COUNT(m.ply)
        FROM games g
        LEFT JOIN moves m ON m.game_id = g.id
        GROUP BY g.id
        ORDER BY g.created_at DESC, g.id ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r         GameRow
			createdMs int64
			deletedMs sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &createdMs, &deletedMs, &r.MovesCount); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdMs).UTC()
		if deletedMs.Valid {
			t := time.UnixMilli(deletedMs.Int64).UTC()
			r.DeletedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Moves returns the archived plies of game id in order. Unknown ids yield an
// empty slice.
func (a *Archive) Moves(ctx context.Context, id string) ([]MoveRow, error) {
	out := []MoveRow{}
	if a == nil {
		return out, nil
	}
	rows, err := a.db.QueryContext(ctx, `
        SELECT ply, from_sq, to_sq, piece, captured, played_at
        FROM moves
        WHERE game_id=?
        ORDER BY ply ASC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r               MoveRow
			from, to, piece string
			captured        sql.NullString
			playedMs        int64
		)
		if err := rows.Scan(&r.Ply, &from, &to, &piece, &captured, &playedMs); err != nil {
			return nil, err
		}
		if r.From, err = game.ParsePosition(from); err != nil {
			return nil, fmt.Errorf("ply %d: %w", r.Ply, err)
		}
		if r.To, err = game.ParsePosition(to); err != nil {
			return nil, fmt.Errorf("ply %d: %w", r.Ply, err)
		}
		if r.Piece, err = game.ParsePiece(piece); err != nil {
			return nil, fmt.Errorf("ply %d: %w", r.Ply, err)
		}
		if captured.Valid {
			pc, err := game.ParsePiece(captured.String)
			if err != nil {
				return nil, fmt.Errorf("ply %d: %w", r.Ply, err)
			}
			r.Captured = &pc
		}
		r.PlayedAt = time.UnixMilli(playedMs).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
