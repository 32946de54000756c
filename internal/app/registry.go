package app

import (
	"context"
	"time"

	"quizroom-service/internal/domain"
)

// RoomRegistry maps room ids to live sessions. Implementations must make
// GetOrCreate race-free: two concurrent first-joins to the same unknown room
// id observe a single session.
type RoomRegistry interface {
	GetOrCreate(roomID, creatorConnectionID string) *Session
	Get(roomID string) (*Session, bool)
	Remove(roomID string)
	// Sweep removes sessions idle for longer than maxIdle and returns how
	// many were reaped. Implementations close each reaped session so its
	// subscribers drain out.
	Sweep(maxIdle time.Duration) int
}

// QuestionSource provides quiz content. FetchRandomQuestions draws a sample;
// FetchCustomQuiz loads a stored quiz by id, returning domain.ErrQuizNotFound
// when it does not exist.
type QuestionSource interface {
	FetchRandomQuestions(ctx context.Context, count int) ([]domain.Question, error)
	FetchCustomQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
}

// ProfileService is the external XP/leveling collaborator. AwardXP returns
// the user's level after the grant and whether the grant crossed a level
// boundary.
type ProfileService interface {
	AwardXP(ctx context.Context, userID string, amount int) (newLevel int, leveledUp bool, err error)
}

// AchievementService awards fixed-trigger achievements. CheckAndAward is
// idempotent: re-awarding an unlocked achievement reports false.
type AchievementService interface {
	CheckAndAward(ctx context.Context, userID, achievementID string) (bool, error)
}

// ResultArchive persists finished games. Calls are fire-and-forget from the
// room's perspective; failures are logged and never reach players.
type ResultArchive interface {
	RecordResult(ctx context.Context, record domain.GameRecord) error
}
