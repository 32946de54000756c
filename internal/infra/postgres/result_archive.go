package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quizroom-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultArchive persists finished games into the game_results table.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (a *ResultArchive) RecordResult(ctx context.Context, record domain.GameRecord) error {
	results, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO game_results (room_id, results, total_questions, completed_at)
		 VALUES ($1, $2, $3, $4)`,
		record.RoomID, results, record.TotalQuestions, record.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}
