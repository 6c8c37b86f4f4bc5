// Package database persists finished match records to Postgres. The relay
// does not depend on it for correctness: all live state is in memory, and
// persistence is best-effort history for the room browser's match log.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool. Nil when Postgres is not configured;
// callers must check before storing.
var DB *pgxpool.Pool

// Connect opens the pool using DATABASE_URL and ensures the schema exists.
func Connect(ctx context.Context) error {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	DB = pool
	logrus.Info("Connected to Postgres")
	return ensureSchema(ctx)
}

func ensureSchema(ctx context.Context) error {
	_, err := DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_results (
			id          BIGSERIAL PRIMARY KEY,
			room_id     TEXT        NOT NULL,
			winner_id   TEXT,
			winner_name TEXT,
			final_state JSONB       NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure game_results schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

// StoreGameResult records a finished game's final state and winner.
func StoreGameResult(ctx context.Context, roomID, winnerID, winnerName string, finalState json.RawMessage) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	_, err := DB.Exec(ctx,
		`INSERT INTO game_results (room_id, winner_id, winner_name, final_state) VALUES ($1, $2, $3, $4)`,
		roomID, winnerID, winnerName, finalState)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// StoreGameResultAsync persists in the background with its own timeout so
// the relay path never waits on Postgres.
func StoreGameResultAsync(roomID, winnerID, winnerName string, finalState json.RawMessage) {
	if DB == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := StoreGameResult(ctx, roomID, winnerID, winnerName, finalState); err != nil {
			logrus.WithError(err).Warnf("failed to store game result for room %s", roomID)
		}
	}()
}
