package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizroom-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionSource loads quiz content from Postgres: random draws from the
// questions table and custom quizzes stored as JSONB.
type QuestionSource struct {
	pool *pgxpool.Pool
}

func NewQuestionSource(pool *pgxpool.Pool) *QuestionSource {
	return &QuestionSource{pool: pool}
}

func (s *QuestionSource) FetchRandomQuestions(ctx context.Context, count int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT text, options, correct_index, difficulty, category, explanation
		   FROM questions ORDER BY random() LIMIT $1`, count)
	if err != nil {
		return nil, fmt.Errorf("fetch random questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.Text, &options, &q.CorrectIndex, &q.Difficulty, &q.Category, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch random questions: %w", err)
	}
	return questions, nil
}

func (s *QuestionSource) FetchCustomQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM custom_quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load custom quiz: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal custom quiz: %w", err)
	}
	return questions, nil
}
