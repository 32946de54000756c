package app

import (
	"time"

	"quizroom-service/internal/domain"
)

// Timing groups the pacing knobs for a quiz run. Every question's active
// window is a race between the fast path (all players answered) and the
// slow path (TimeLimit elapsed); exactly one of the two resolves it.
type Timing struct {
	// TimeLimit is the hard per-question timeout.
	TimeLimit time.Duration
	// RevealDelay is how long the answer reveal stays up before advancing,
	// on both completion paths.
	RevealDelay time.Duration
	// QuestionGap separates one question's reveal from the next broadcast.
	QuestionGap time.Duration
	// StartDelay separates quizStarted from the first question.
	StartDelay time.Duration
}

// DefaultTiming mirrors the original pacing: 30s questions, 3s reveal,
// 2s between questions, 2s lead-in.
func DefaultTiming() Timing {
	return Timing{
		TimeLimit:   30 * time.Second,
		RevealDelay: 3 * time.Second,
		QuestionGap: 2 * time.Second,
		StartDelay:  2 * time.Second,
	}
}

// deliverQuestion broadcasts the current question and arms the slow-path
// timeout. Arming bumps the session's timer version, so whatever timer was
// pending for the previous question can no longer fire meaningfully.
func (svc *RoomService) deliverQuestion(s *Session, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timerValidLocked(token) || s.state != domain.StatePlaying {
		return
	}
	if s.current >= len(s.questions) {
		return
	}

	s.answers = make(map[string]domain.AnswerRecord)
	s.resolved = false
	s.questionOpen = true
	q := s.questions[s.current]
	s.broadcastLocked(domain.Event{
		Type: domain.EventNewQuestion,
		Payload: domain.NewQuestionPayload{
			QuestionNumber: s.current + 1,
			TotalQuestions: len(s.questions),
			Question: domain.QuestionView{
				Text:       q.Text,
				Options:    q.Options,
				Category:   q.Category,
				Difficulty: q.Difficulty,
			},
			TimeLimit: int(svc.timing.TimeLimit.Seconds()),
		},
	})
	s.touchLocked()
	s.armTimerLocked(svc.timing.TimeLimit, func(t uint64) { svc.questionTimeout(s, t) })
}

// questionTimeout is the slow path: every player without an answer is
// recorded as timed out (incorrect, zero points), then the reveal delay runs.
func (svc *RoomService) questionTimeout(s *Session, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timerValidLocked(token) || s.state != domain.StatePlaying {
		return
	}
	for _, p := range s.players {
		if _, ok := s.answers[p.ConnectionID]; !ok {
			s.answers[p.ConnectionID] = domain.AnswerRecord{SelectedIndex: domain.NoAnswer}
		}
	}
	svc.resolveQuestionLocked(s)
}

// resolveQuestionLocked commits the current question to advancing after the
// reveal delay. Idempotent per question: the fast path, the slow path and a
// post-answer disconnect can all reach it, only the first arms the timer.
func (svc *RoomService) resolveQuestionLocked(s *Session) {
	if s.resolved {
		return
	}
	s.resolved = true
	s.questionOpen = false
	s.armTimerLocked(svc.timing.RevealDelay, func(t uint64) { svc.advance(s, t) })
}

// advance moves to the next question or ends the quiz once the snapshot is
// exhausted. The in-room quizEnded event publishes immediately; external
// side effects (XP, achievements, archive) run on their own goroutine so a
// slow collaborator cannot stall the room.
func (svc *RoomService) advance(s *Session, token uint64) {
	s.mu.Lock()
	if !s.timerValidLocked(token) || s.state != domain.StatePlaying {
		s.mu.Unlock()
		return
	}

	s.current++
	if s.current < len(s.questions) {
		s.armTimerLocked(svc.timing.QuestionGap, func(t uint64) { svc.deliverQuestion(s, t) })
		s.mu.Unlock()
		return
	}

	s.state = domain.StateEnded
	s.cancelTimerLocked()
	s.touchLocked()
	results := s.resultsLocked()
	var winner *domain.FinalResult
	if len(results) > 0 {
		w := results[0]
		winner = &w
	}
	s.broadcastLocked(domain.Event{
		Type:    domain.EventQuizEnded,
		Payload: domain.QuizEndedPayload{Results: results, Winner: winner},
	})
	totalQuestions := len(s.questions)
	s.mu.Unlock()

	go svc.publishResults(s, results, totalQuestions)
}
