// internal/store/redis.go
//
// Redis-backed Store.
// Layout:
//   - chess:game:<id>  JSON record {id, created_at, moves[{from,to}]}, TTL refreshed on save.
//   - chess:games      set of known IDs; entries whose record expired are pruned on List.
//
// Get replays the recorded history onto a fresh board, so every lookup yields
// an independent handle. Save uses WATCH and only accepts a history that
// extends the stored one; a competing writer gets ErrConflict, and a played
// game whose record is gone gets ErrNotFound.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/chess-server/internal/game"
)

const (
	gameKeyPrefix = "chess:game:"
	indexKey      = "chess:games"
)

func gameKey(id string) string { return gameKeyPrefix + strings.TrimSpace(id) }

type record struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Moves     []recordMove `json:"moves"`
}

type recordMove struct {
	From game.Position `json:"from"`
	To   game.Position `json:"to"`
}

// RedisStore keeps game histories in Redis.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration // 0 keeps records forever
}

// NewRedisStore dials redisURL (redis:// or rediss://) and pings it.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Close releases the client.
func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) Save(ctx context.Context, g *game.Game) error {
	rec := record{ID: g.ID, CreatedAt: g.CreatedAt}
	for _, m := range g.Moves() {
		rec.Moves = append(rec.Moves, recordMove{From: m.From, To: m.To})
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := gameKey(g.ID)
	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		prev, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if len(rec.Moves) > 0 {
				// deleted or expired since it was loaded
				return ErrNotFound
			}
		case err != nil:
			return err
		default:
			var cur record
			if err := json.Unmarshal(prev, &cur); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			if !extends(cur.Moves, rec.Moves) {
				return ErrConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, raw, s.ttl)
			p.SAdd(ctx, indexKey, g.ID)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*game.Game, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	history := make([]game.Move, len(rec.Moves))
	for i, m := range rec.Moves {
		history[i] = game.Move{From: m.From, To: m.To}
	}
	return game.Replay(rec.ID, rec.CreatedAt, history)
}

func (s *RedisStore) List(ctx context.Context) ([]*game.Game, error) {
	ids, err := s.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*game.Game, 0, len(ids))
	for _, id := range ids {
		g, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			_ = s.rdb.SRem(ctx, indexKey, id).Err()
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("gameId", id).Msg("skip unreadable game")
			continue
		}
		out = append(out, g)
	}
	sortByCreation(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, gameKey(id)).Result()
	if err != nil {
		return err
	}
	if err := s.rdb.SRem(ctx, indexKey, id).Err(); err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// extends reports whether next starts with every move of prev.
func extends(prev, next []recordMove) bool {
	if len(prev) > len(next) {
		return false
	}
	for i := range prev {
		if prev[i] != next[i] {
			return false
		}
	}
	return true
}
