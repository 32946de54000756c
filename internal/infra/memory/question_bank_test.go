package memory

import (
	"context"
	"errors"
	"testing"

	"quizroom-service/internal/domain"
)

func TestQuestionBankRandomDraw(t *testing.T) {
	bank := NewQuestionBank(SampleQuestions())

	questions, err := bank.FetchRandomQuestions(context.Background(), 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if !q.Valid() {
			t.Fatalf("sample question must be playable: %+v", q)
		}
	}

	// Asking for more than the pool holds returns the whole pool.
	all, err := bank.FetchRandomQuestions(context.Background(), 100)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(all) != len(SampleQuestions()) {
		t.Fatalf("expected full pool, got %d", len(all))
	}
}

func TestQuestionBankCustomQuiz(t *testing.T) {
	bank := NewQuestionBank(nil)
	quiz := SampleQuestions()[:2]
	bank.AddQuiz("my-quiz", quiz)

	got, err := bank.FetchCustomQuiz(context.Background(), "my-quiz")
	if err != nil {
		t.Fatalf("fetch custom: %v", err)
	}
	if len(got) != 2 || got[0].Text != quiz[0].Text {
		t.Fatalf("unexpected quiz content: %+v", got)
	}

	if _, err := bank.FetchCustomQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
