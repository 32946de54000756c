package redis

import (
	"context"
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestQuestionCacheStoresCustomQuizInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := memory.NewQuestionBank(memory.SampleQuestions())
	bank.AddQuiz("quiz-1", memory.SampleQuestions()[:2])
	source := &countingSource{QuestionSource: bank}
	cache := NewQuestionCache(newClient(mr), source, time.Minute)

	questions, err := cache.FetchCustomQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if source.calls != 1 {
		t.Fatalf("expected one source call, got %d", source.calls)
	}
	if !mr.Exists("quiz:custom:quiz-1") {
		t.Fatalf("expected cached key in redis")
	}

	if _, err := cache.FetchCustomQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("fetch cached: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}
}

type countingSource struct {
	app.QuestionSource
	calls int
}

func (s *countingSource) FetchCustomQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.FetchCustomQuiz(ctx, quizID)
}
