package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"quizroom-service/internal/domain"
)

// eventBuffer is the per-subscriber channel depth.
const eventBuffer = 16

// Session holds one room's quiz state. Every mutation, whether it originates
// from a network command, a timer firing or the idle sweep, runs under s.mu,
// which is the per-room serialization the state machine depends on. Nothing
// blocks on an external service while the lock is held.
type Session struct {
	id  string
	now func() time.Time

	mu           sync.Mutex
	host         string
	players      []*domain.Player // insertion order = join order
	state        domain.SessionState
	questions    []domain.Question
	current      int
	answers      map[string]domain.AnswerRecord
	scores       map[string]int
	lastActivity time.Time
	closed       bool

	// timerVersion tags the currently armed timer. A firing whose token no
	// longer matches is stale and must no-op, so a leftover timer from a
	// previous question can never double-advance.
	timerVersion uint64
	timer        *time.Timer
	// resolved is set once the current question is heading to advance, so
	// the fast path cannot re-arm the reveal timer.
	resolved bool
	// questionOpen is true only between a question's broadcast and its
	// resolution; answers outside that window are rejected.
	questionOpen bool

	subscribers map[string]chan domain.Event
}

// NewSession creates a waiting session for roomID owned by the creating
// connection. Exported for the registry implementations under infra.
func NewSession(roomID, hostConnectionID string) *Session {
	return NewSessionWithClock(roomID, hostConnectionID, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(roomID, hostConnectionID string, now func() time.Time) *Session {
	return &Session{
		id:           roomID,
		now:          now,
		host:         hostConnectionID,
		state:        domain.StateWaiting,
		answers:      make(map[string]domain.AnswerRecord),
		scores:       make(map[string]int),
		lastActivity: now(),
		subscribers:  make(map[string]chan domain.Event),
	}
}

// ID returns the room key this session serves.
func (s *Session) ID() string { return s.id }

// IsEmpty reports whether no players remain.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) == 0
}

// State returns the current lifecycle phase.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Expired reports whether the session has seen no player-visible activity
// for longer than maxIdle.
func (s *Session) Expired(maxIdle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.lastActivity) > maxIdle
}

// Close cancels any armed timer and closes all subscriber channels. Called
// by the registry when the session is removed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancelTimerLocked()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *Session) touchLocked() {
	s.lastActivity = s.now()
}

func (s *Session) playerLocked(connectionID string) (*domain.Player, bool) {
	for _, p := range s.players {
		if p.ConnectionID == connectionID {
			return p, true
		}
	}
	return nil, false
}

// addPlayerLocked registers or refreshes a player and wires their event
// channel. Joining mid-quiz seeds a zero score so the newcomer shows up on
// the scoreboard and counts toward the fast-path denominator.
func (s *Session) addPlayerLocked(player domain.Player) chan domain.Event {
	if existing, ok := s.playerLocked(player.ConnectionID); ok {
		existing.DisplayName = player.DisplayName
		existing.UserID = player.UserID
	} else {
		p := player
		s.players = append(s.players, &p)
	}
	if s.state == domain.StatePlaying {
		if _, ok := s.scores[player.ConnectionID]; !ok {
			s.scores[player.ConnectionID] = 0
		}
	}

	ch, ok := s.subscribers[player.ConnectionID]
	if !ok {
		ch = make(chan domain.Event, eventBuffer)
		s.subscribers[player.ConnectionID] = ch
	}
	s.touchLocked()
	return ch
}

// removePlayerLocked drops a player, their current answer, and their event
// channel. Host reassignment is deterministic: the next-joined remaining
// player inherits the room.
func (s *Session) removePlayerLocked(connectionID string) {
	for i, p := range s.players {
		if p.ConnectionID == connectionID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			break
		}
	}
	delete(s.answers, connectionID)
	if ch, ok := s.subscribers[connectionID]; ok {
		delete(s.subscribers, connectionID)
		close(ch)
	}
	if s.host == connectionID && len(s.players) > 0 {
		s.host = s.players[0].ConnectionID
	}
	s.touchLocked()
}

// allAnsweredLocked is the fast-path condition: every currently connected
// player has an answer (or timeout record) for the current question.
func (s *Session) allAnsweredLocked() bool {
	return len(s.players) > 0 && len(s.answers) == len(s.players)
}

func (s *Session) playerListLocked() domain.PlayerListPayload {
	players := make([]domain.PlayerInfo, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, domain.PlayerInfo{
			ID:     p.ConnectionID,
			Name:   p.DisplayName,
			Score:  s.scores[p.ConnectionID],
			IsHost: p.ConnectionID == s.host,
		})
	}
	return domain.PlayerListPayload{Players: players, HostID: s.host}
}

// resultsLocked ranks players by score descending; ties keep join order.
func (s *Session) resultsLocked() []domain.FinalResult {
	results := make([]domain.FinalResult, 0, len(s.players))
	for _, p := range s.players {
		results = append(results, domain.FinalResult{
			ConnectionID: p.ConnectionID,
			Name:         p.DisplayName,
			Score:        s.scores[p.ConnectionID],
			UserID:       p.UserID,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// broadcastLocked fans an event out to every subscribed connection. Slow
// consumers lose their oldest buffered event rather than blocking the room.
func (s *Session) broadcastLocked(ev domain.Event) {
	if s.closed {
		return
	}
	for _, ch := range s.subscribers {
		deliver(ch, ev)
	}
}

// sendToLocked addresses an event to a single connection.
func (s *Session) sendToLocked(connectionID string, ev domain.Event) {
	if s.closed {
		return
	}
	if ch, ok := s.subscribers[connectionID]; ok {
		deliver(ch, ev)
	}
}

// sendTo is the goroutine-safe variant used after the quiz has ended.
func (s *Session) sendTo(connectionID string, ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendToLocked(connectionID, ev)
}

func deliver(ch chan domain.Event, ev domain.Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// armTimerLocked invalidates whatever timer is pending and schedules fn
// after d. fn receives the token it was armed with and must check it against
// the session before acting.
func (s *Session) armTimerLocked(d time.Duration, fn func(token uint64)) {
	s.timerVersion++
	token := s.timerVersion
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, func() { fn(token) })
}

func (s *Session) cancelTimerLocked() {
	s.timerVersion++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) timerValidLocked(token uint64) bool {
	return token == s.timerVersion && !s.closed
}

// NormalizeRoomID canonicalizes user-supplied room codes so case variants
// meet in the same room.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}
