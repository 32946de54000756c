package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizroom-service/internal/domain"
)

// QuestionBank is an in-memory app.QuestionSource. It backs the no-database
// dev mode and serves as the fallback when the real source is unreachable.
type QuestionBank struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	pool    []domain.Question
	quizzes map[string][]domain.Question
}

func NewQuestionBank(pool []domain.Question) *QuestionBank {
	return &QuestionBank{
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		pool:    pool,
		quizzes: make(map[string][]domain.Question),
	}
}

// AddQuiz registers a custom quiz under id (tests and demos).
func (b *QuestionBank) AddQuiz(id string, questions []domain.Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quizzes[id] = questions
}

// FetchRandomQuestions returns up to count questions drawn without
// replacement from the pool.
func (b *QuestionBank) FetchRandomQuestions(_ context.Context, count int) ([]domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	drawn := make([]domain.Question, len(b.pool))
	copy(drawn, b.pool)
	b.rnd.Shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })
	if count < len(drawn) {
		drawn = drawn[:count]
	}
	return drawn, nil
}

func (b *QuestionBank) FetchCustomQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if questions, ok := b.quizzes[quizID]; ok {
		return questions, nil
	}
	return nil, domain.ErrQuizNotFound
}

// SampleQuestions is the built-in general-knowledge bank.
func SampleQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is the capital of France?", Options: []string{"London", "Berlin", "Paris", "Madrid"}, CorrectIndex: 2, Difficulty: domain.DifficultyEasy, Category: "Geography"},
		{Text: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectIndex: 1, Difficulty: domain.DifficultyEasy, Category: "Science"},
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1, Difficulty: domain.DifficultyEasy, Category: "Math"},
		{Text: "Who painted the Mona Lisa?", Options: []string{"Van Gogh", "Picasso", "Da Vinci", "Monet"}, CorrectIndex: 2, Difficulty: domain.DifficultyMedium, Category: "Art"},
		{Text: "What is the largest ocean on Earth?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectIndex: 3, Difficulty: domain.DifficultyEasy, Category: "Geography"},
		{Text: "Which programming language is known for web development?", Options: []string{"Python", "JavaScript", "C++", "Java"}, CorrectIndex: 1, Difficulty: domain.DifficultyMedium, Category: "Technology"},
		{Text: "What year did World War II end?", Options: []string{"1944", "1945", "1946", "1947"}, CorrectIndex: 1, Difficulty: domain.DifficultyMedium, Category: "History"},
		{Text: "Which element has the chemical symbol 'O'?", Options: []string{"Gold", "Silver", "Oxygen", "Iron"}, CorrectIndex: 2, Difficulty: domain.DifficultyEasy, Category: "Science"},
		{Text: "What is the fastest land animal?", Options: []string{"Lion", "Cheetah", "Leopard", "Tiger"}, CorrectIndex: 1, Difficulty: domain.DifficultyEasy, Category: "Animals"},
		{Text: "Which country is home to the kangaroo?", Options: []string{"New Zealand", "Australia", "South Africa", "Brazil"}, CorrectIndex: 1, Difficulty: domain.DifficultyEasy, Category: "Geography"},
	}
}
