package memory

import (
	"sync"
	"time"

	"quizroom-service/internal/app"
)

// RoomRegistry is the in-memory implementation of app.RoomRegistry.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*app.Session
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*app.Session)}
}

// GetOrCreate returns the live session for roomID, creating it with the
// caller as host when none exists. The registry mutex makes concurrent
// first-joins converge on a single session.
func (r *RoomRegistry) GetOrCreate(roomID, creatorConnectionID string) *app.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.rooms[roomID]; ok {
		return session
	}
	session := app.NewSession(roomID, creatorConnectionID)
	r.rooms[roomID] = session
	return session
}

func (r *RoomRegistry) Get(roomID string) (*app.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.rooms[roomID]
	return session, ok
}

func (r *RoomRegistry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// Sweep reaps sessions idle beyond maxIdle. Closing a session takes its
// per-room lock, so a sweep cannot race an in-flight mutation on the same
// room; the loser of that race observes the closed flag and backs off.
func (r *RoomRegistry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	reaped := 0
	for roomID, session := range r.rooms {
		if session.Expired(maxIdle) {
			session.Close()
			delete(r.rooms, roomID)
			reaped++
		}
	}
	return reaped
}
