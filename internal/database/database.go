package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/quizroom-backend/internal"
)

// Service is the archive of finished games.
type Service interface {
	// Health returns a map of health status information.
	Health(ctx context.Context) map[string]string

	RecordResult(ctx context.Context, result internal.GameResult) error
	RecentResults(ctx context.Context, limit int) ([]internal.GameResult, error)

	// Close terminates the connection pool.
	Close()
}

const (
	DefaultResultsLimit = 20
	MaxResultsLimit     = 100
)

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
	id          TEXT PRIMARY KEY,
	room_code   TEXT NOT NULL,
	variant     TEXT NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	is_draw     BOOLEAN NOT NULL,
	winner_id   TEXT,
	standings   JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS game_results_finished_at_idx ON game_results (finished_at DESC);
`

type service struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and makes sure the schema exists.
func New(ctx context.Context, databaseURL string) (Service, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("database", poolCfg.ConnConfig.Database).Msg("[Database] connected")
	return &service{pool: pool}, nil
}

func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("[Database] health check failed")
		return stats
	}

	stat := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["open_connections"] = strconv.Itoa(int(stat.TotalConns()))
	stats["in_use"] = strconv.Itoa(int(stat.AcquiredConns()))
	stats["idle"] = strconv.Itoa(int(stat.IdleConns()))
	stats["acquire_count"] = strconv.FormatInt(stat.AcquireCount(), 10)

	if stat.TotalConns() >= stat.MaxConns() {
		stats["message"] = "The database is experiencing heavy load."
	}
	return stats
}

func (s *service) RecordResult(ctx context.Context, result internal.GameResult) error {
	standings, err := json.Marshal(result.Standings)
	if err != nil {
		return fmt.Errorf("encode standings: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_results (id, room_code, variant, finished_at, is_draw, winner_id, standings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.Id, result.RoomCode, result.Variant, result.FinishedAt, result.IsDraw, result.WinnerId, standings)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", result.Id, err)
	}

	log.Debug().Str("room", result.RoomCode).Str("result", result.Id).Msg("[Database] result recorded")
	return nil
}

// RecentResults returns the newest results first. limit is clamped to 1..MaxResultsLimit.
func (s *service) RecentResults(ctx context.Context, limit int) ([]internal.GameResult, error) {
	if limit <= 0 {
		limit = DefaultResultsLimit
	}
	limit = min(limit, MaxResultsLimit)

	rows, err := s.pool.Query(ctx, `
		SELECT id, room_code, variant, finished_at, is_draw, winner_id, standings
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (internal.GameResult, error) {
		var (
			r         internal.GameResult
			standings []byte
		)
		if err := row.Scan(&r.Id, &r.RoomCode, &r.Variant, &r.FinishedAt, &r.IsDraw, &r.WinnerId, &standings); err != nil {
			return r, err
		}
		if err := json.Unmarshal(standings, &r.Standings); err != nil {
			return r, fmt.Errorf("decode standings: %w", err)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	return results, nil
}

func (s *service) Close() {
	log.Info().Msg("[Database] closing pool")
	s.pool.Close()
}
