package domain

// Outbound event types. The payload shapes below are part of the wire
// contract with clients.
const (
	EventJoinedRoom          = "joinedRoom"
	EventPlayerList          = "playerList"
	EventQuizStarted         = "quizStarted"
	EventNewQuestion         = "newQuestion"
	EventAnswerResult        = "answerResult"
	EventQuizEnded           = "quizEnded"
	EventLevelUp             = "levelUp"
	EventAchievementUnlocked = "achievementUnlocked"
	EventError               = "error"
)

// Event is a tagged message emitted to room members. Payload is always one
// of the *Payload structs in this file.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// JoinedRoomPayload is sent privately to a connection that joined a room.
type JoinedRoomPayload struct {
	RoomID string       `json:"roomId"`
	IsHost bool         `json:"isHost"`
	State  SessionState `json:"state"`
}

// PlayerInfo is one entry of a player-list snapshot.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

// PlayerListPayload is the full recomputed roster, broadcast on every
// join and leave.
type PlayerListPayload struct {
	Players []PlayerInfo `json:"players"`
	HostID  string       `json:"hostId"`
}

type QuizStartedPayload struct {
	TotalQuestions int `json:"totalQuestions"`
}

// QuestionView is the client-safe projection of a question; the correct
// index and explanation are withheld until the reveal.
type QuestionView struct {
	Text       string     `json:"text"`
	Options    []string   `json:"options"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
}

type NewQuestionPayload struct {
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	Question       QuestionView `json:"question"`
	TimeLimit      int          `json:"timeLimit"`
}

// AnswerResultPayload is the private reveal sent only to the submitter.
type AnswerResultPayload struct {
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

type QuizEndedPayload struct {
	Results []FinalResult `json:"results"`
	Winner  *FinalResult  `json:"winner"`
}

type LevelUpPayload struct {
	NewLevel int `json:"newLevel"`
}

type AchievementUnlockedPayload struct {
	AchievementID string `json:"achievementId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
