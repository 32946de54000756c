package app

import "quizroom-service/internal/domain"

// speedBonusCap is the maximum extra points for an instant correct answer.
const speedBonusCap = 50

// basePoints is the fixed per-tier award for a correct answer. Unknown
// tiers score as hard, matching the original difficulty ladder's top rung.
func basePoints(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyEasy:
		return 100
	case domain.DifficultyMedium:
		return 150
	default:
		return 200
	}
}

// scoreAnswer computes correctness and points for a submission.
// timeRemaining is clamped into [0, timeLimit] before the bonus is derived,
// so a client reporting nonsense cannot mint extra points.
func scoreAnswer(q domain.Question, selectedIndex int, timeRemaining, timeLimit float64) (bool, int) {
	if selectedIndex != q.CorrectIndex {
		return false, 0
	}
	if timeLimit <= 0 {
		return true, basePoints(q.Difficulty)
	}
	if timeRemaining < 0 {
		timeRemaining = 0
	}
	if timeRemaining > timeLimit {
		timeRemaining = timeLimit
	}
	bonus := int(timeRemaining / timeLimit * speedBonusCap)
	return true, basePoints(q.Difficulty) + bonus
}
