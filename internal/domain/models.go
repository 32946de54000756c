package domain

import "time"

// Difficulty tiers a question can carry. Base points grow with the tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// SessionState is the lifecycle phase of a room's quiz run.
// Transitions only ever move forward: waiting -> playing -> ended.
type SessionState string

const (
	StateWaiting SessionState = "waiting"
	StatePlaying SessionState = "playing"
	StateEnded   SessionState = "ended"
)

// OptionCount is the fixed number of options every question carries.
const OptionCount = 4

// NoAnswer is the sentinel selected index recorded for players who let the
// question time out.
const NoAnswer = -1

// Question is an immutable MCQ snapshot. Sessions copy questions at quiz
// start and never mutate them afterwards.
type Question struct {
	Text         string     `json:"text"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correctIndex"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     string     `json:"category"`
	Explanation  string     `json:"explanation,omitempty"`
}

// Valid reports whether the question can be played: exactly four options and
// a correct index pointing at one of them.
func (q Question) Valid() bool {
	return len(q.Options) == OptionCount && q.CorrectIndex >= 0 && q.CorrectIndex < OptionCount
}

// Player ties a transport-scoped connection to a room-scoped identity.
// UserID is the optional cross-room identity; empty for anonymous play.
type Player struct {
	ConnectionID string
	DisplayName  string
	UserID       string
}

// AnswerRecord is one player's answer to the current question.
type AnswerRecord struct {
	SelectedIndex int
	IsCorrect     bool
	Points        int
	TimeRemaining float64
}

// FinalResult is one row of the published scoreboard at quiz end.
type FinalResult struct {
	ConnectionID string `json:"id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	UserID       string `json:"userId,omitempty"`
}

// GameRecord is what the result archive persists after a quiz ends.
type GameRecord struct {
	RoomID         string        `json:"roomId"`
	Results        []FinalResult `json:"results"`
	TotalQuestions int           `json:"totalQuestions"`
	CompletedAt    time.Time     `json:"completedAt"`
}
