package app

import (
	"context"
	"errors"
	"log"
	"time"

	"quizroom-service/internal/domain"
)

// Achievement ids the core triggers at quiz end.
const (
	achievementFirstQuiz = "first_quiz"
	achievementTopScore  = "perfect_score"
)

// sideEffectTimeout bounds the post-quiz collaborator calls.
const sideEffectTimeout = 10 * time.Second

// Deps are the collaborators a RoomService orchestrates. Rooms and Source
// are required; Fallback backs the random draw when the source is down, and
// the remaining services may be nil, in which case their side effects are
// skipped.
type Deps struct {
	Rooms        RoomRegistry
	Source       QuestionSource
	Fallback     QuestionSource
	Profiles     ProfileService
	Achievements AchievementService
	Archive      ResultArchive
}

// RoomService contains the room/quiz use cases: join, start, answer, leave.
// All session mutation funnels through here and runs under the session's
// lock; collaborator calls happen strictly outside it.
type RoomService struct {
	rooms         RoomRegistry
	source        QuestionSource
	fallback      QuestionSource
	profiles      ProfileService
	achievements  AchievementService
	archive       ResultArchive
	timing        Timing
	questionCount int
}

func NewRoomService(deps Deps, timing Timing, questionCount int) *RoomService {
	if questionCount <= 0 {
		questionCount = 10
	}
	return &RoomService{
		rooms:         deps.Rooms,
		source:        deps.Source,
		fallback:      deps.Fallback,
		profiles:      deps.Profiles,
		achievements:  deps.Achievements,
		archive:       deps.Archive,
		timing:        timing,
		questionCount: questionCount,
	}
}

// Join adds a connection to a room, creating the session on first contact.
// The returned channel carries every event addressed to this connection
// until Leave (or the idle sweep) closes it. The joiner privately receives
// joinedRoom and the whole room gets a fresh player-list snapshot.
func (svc *RoomService) Join(ctx context.Context, roomID, connectionID, displayName, userID string) (<-chan domain.Event, error) {
	rid := NormalizeRoomID(roomID)
	if rid == "" || displayName == "" {
		return nil, errors.New("room id and player name are required")
	}

	for {
		s := svc.rooms.GetOrCreate(rid, connectionID)
		s.mu.Lock()
		if s.closed {
			// Lost a race with the sweeper; the registry no longer holds
			// this session, so the next GetOrCreate mints a fresh one.
			s.mu.Unlock()
			continue
		}
		ch := s.addPlayerLocked(domain.Player{
			ConnectionID: connectionID,
			DisplayName:  displayName,
			UserID:       userID,
		})
		s.sendToLocked(connectionID, domain.Event{
			Type: domain.EventJoinedRoom,
			Payload: domain.JoinedRoomPayload{
				RoomID: rid,
				IsHost: connectionID == s.host,
				State:  s.state,
			},
		})
		s.broadcastLocked(domain.Event{Type: domain.EventPlayerList, Payload: s.playerListLocked()})
		s.mu.Unlock()
		return ch, nil
	}
}

// StartQuiz transitions a waiting room to playing. Only the current host
// may start. The question snapshot is fetched outside the session lock and
// the preconditions are re-checked afterwards, since the host can vanish
// while the source round-trips.
func (svc *RoomService) StartQuiz(ctx context.Context, roomID, connectionID, quizID string) error {
	rid := NormalizeRoomID(roomID)
	s, ok := svc.rooms.Get(rid)
	if !ok {
		return domain.ErrRoomNotFound
	}

	s.mu.Lock()
	if connectionID != s.host {
		s.mu.Unlock()
		return domain.ErrNotHost
	}
	if s.state != domain.StateWaiting {
		s.mu.Unlock()
		return domain.ErrInvalidState
	}
	s.mu.Unlock()

	questions, err := svc.loadQuestions(ctx, quizID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrRoomNotFound
	}
	if connectionID != s.host {
		return domain.ErrNotHost
	}
	if s.state != domain.StateWaiting {
		return domain.ErrInvalidState
	}

	s.questions = questions
	s.current = 0
	s.answers = make(map[string]domain.AnswerRecord)
	s.resolved = false
	s.questionOpen = false
	s.scores = make(map[string]int, len(s.players))
	for _, p := range s.players {
		s.scores[p.ConnectionID] = 0
	}
	s.state = domain.StatePlaying
	s.touchLocked()
	s.broadcastLocked(domain.Event{
		Type:    domain.EventQuizStarted,
		Payload: domain.QuizStartedPayload{TotalQuestions: len(questions)},
	})
	s.armTimerLocked(svc.timing.StartDelay, func(t uint64) { svc.deliverQuestion(s, t) })
	return nil
}

// SubmitAnswer records at most one answer per player per question, scores
// it, reveals the outcome privately to the submitter, and completes the
// question early once every connected player has answered.
func (svc *RoomService) SubmitAnswer(ctx context.Context, roomID, connectionID string, answerIndex int, timeRemaining float64) error {
	rid := NormalizeRoomID(roomID)
	s, ok := svc.rooms.Get(rid)
	if !ok {
		return domain.ErrRoomNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StatePlaying || !s.questionOpen {
		// Also rejects answers landing in the lead-in and between-question
		// gaps, before the target question has been broadcast.
		return domain.ErrInvalidState
	}
	if _, ok := s.playerLocked(connectionID); !ok {
		return domain.ErrNotInRoom
	}
	if _, dup := s.answers[connectionID]; dup {
		// At most one answer per player per question; repeats are dropped
		// without error or mutation.
		return nil
	}

	q := s.questions[s.current]
	correct, points := scoreAnswer(q, answerIndex, timeRemaining, svc.timing.TimeLimit.Seconds())
	s.answers[connectionID] = domain.AnswerRecord{
		SelectedIndex: answerIndex,
		IsCorrect:     correct,
		Points:        points,
		TimeRemaining: timeRemaining,
	}
	s.scores[connectionID] += points
	s.touchLocked()

	s.sendToLocked(connectionID, domain.Event{
		Type: domain.EventAnswerResult,
		Payload: domain.AnswerResultPayload{
			IsCorrect:     correct,
			Points:        points,
			CorrectAnswer: q.CorrectIndex,
			Explanation:   q.Explanation,
		},
	})

	if s.allAnsweredLocked() {
		svc.resolveQuestionLocked(s)
	}
	return nil
}

// Leave removes a connection from its room. The host role passes to the
// next-joined player; an emptied room is removed immediately. A departure
// mid-question shrinks the fast-path denominator, so the remaining players'
// answers are re-checked for early completion right away.
func (svc *RoomService) Leave(roomID, connectionID string) {
	rid := NormalizeRoomID(roomID)
	s, ok := svc.rooms.Get(rid)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.removePlayerLocked(connectionID)
	empty := len(s.players) == 0
	if empty {
		s.closeLocked()
	} else {
		s.broadcastLocked(domain.Event{Type: domain.EventPlayerList, Payload: s.playerListLocked()})
		if s.state == domain.StatePlaying && s.allAnsweredLocked() {
			svc.resolveQuestionLocked(s)
		}
	}
	s.mu.Unlock()

	if empty {
		svc.rooms.Remove(rid)
	}
}

// RunSweeper periodically reaps idle sessions until ctx is canceled.
func (svc *RoomService) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.rooms.Sweep(maxIdle); n > 0 {
				log.Printf("swept %d idle rooms", n)
			}
		}
	}
}

// loadQuestions resolves the snapshot for a quiz start. A custom quiz id is
// authoritative: its failures surface to the host. The random draw degrades
// to the fallback bank so source unavailability never blocks a start.
func (svc *RoomService) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if quizID != "" {
		questions, err := svc.source.FetchCustomQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		return playable(questions)
	}

	questions, err := svc.source.FetchRandomQuestions(ctx, svc.questionCount)
	if err != nil || len(questions) == 0 {
		if err != nil {
			log.Printf("question source unavailable, using fallback bank: %v", err)
		}
		if svc.fallback == nil {
			return nil, domain.ErrNoQuestions
		}
		questions, err = svc.fallback.FetchRandomQuestions(ctx, svc.questionCount)
		if err != nil {
			return nil, err
		}
	}
	return playable(questions)
}

// playable copies the fetched questions, dropping malformed ones, so the
// session snapshot is both valid and immune to later mutation by the source.
func playable(questions []domain.Question) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Valid() {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return out, nil
}

// publishResults runs the post-quiz side effects: XP, level-up and
// achievement notifications for identified players, and the archival write.
// Every step degrades independently; failures are logged and never touch
// the already-published in-room result.
func (svc *RoomService) publishResults(s *Session, results []domain.FinalResult, totalQuestions int) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	topScore := 0
	if len(results) > 0 {
		topScore = results[0].Score
	}

	for _, r := range results {
		if r.UserID == "" {
			continue
		}
		if svc.profiles != nil {
			newLevel, leveledUp, err := svc.profiles.AwardXP(ctx, r.UserID, r.Score/10)
			if err != nil {
				log.Printf("award xp for %s: %v", r.UserID, err)
			} else if leveledUp {
				s.sendTo(r.ConnectionID, domain.Event{
					Type:    domain.EventLevelUp,
					Payload: domain.LevelUpPayload{NewLevel: newLevel},
				})
			}
		}
		if svc.achievements != nil {
			svc.award(ctx, s, r.ConnectionID, r.UserID, achievementFirstQuiz)
			if topScore > 0 && r.Score == topScore {
				svc.award(ctx, s, r.ConnectionID, r.UserID, achievementTopScore)
			}
		}
	}

	if svc.archive != nil {
		record := domain.GameRecord{
			RoomID:         s.ID(),
			Results:        results,
			TotalQuestions: totalQuestions,
			CompletedAt:    time.Now(),
		}
		if err := svc.archive.RecordResult(ctx, record); err != nil {
			log.Printf("archive result for room %s: %v", s.ID(), err)
		}
	}
}

func (svc *RoomService) award(ctx context.Context, s *Session, connectionID, userID, achievementID string) {
	unlocked, err := svc.achievements.CheckAndAward(ctx, userID, achievementID)
	if err != nil {
		log.Printf("award %s for %s: %v", achievementID, userID, err)
		return
	}
	if unlocked {
		s.sendTo(connectionID, domain.Event{
			Type:    domain.EventAchievementUnlocked,
			Payload: domain.AchievementUnlockedPayload{AchievementID: achievementID},
		})
	}
}
