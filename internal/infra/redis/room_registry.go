package redis

import (
	"context"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// RoomRegistry is a Redis-aware implementation of app.RoomRegistry.
// Notes:
//   - Sessions themselves stay in a local map: the per-room state machine
//     and its timers are in-process by design.
//   - Redis marks room liveness so operators (and a future cross-instance
//     router) can see which rooms are active where.
type RoomRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.Mutex
	rooms  map[string]*app.Session
}

func NewRoomRegistry(client *redis.Client, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Session),
	}
}

func (r *RoomRegistry) GetOrCreate(roomID, creatorConnectionID string) *app.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.rooms[roomID]; ok {
		return session
	}
	session := app.NewSession(roomID, creatorConnectionID)
	r.rooms[roomID] = session
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(roomID), "1", r.ttl).Err()
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
	_ = r.client.Del(context.Background(), r.key(roomID)).Err()
}

func (r *RoomRegistry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	reaped := 0
	for roomID, session := range r.rooms {
		if session.Expired(maxIdle) {
			session.Close()
			delete(r.rooms, roomID)
			_ = r.client.Del(context.Background(), r.key(roomID)).Err()
			reaped++
		}
	}
	return reaped
}

func (r *RoomRegistry) key(roomID string) string {
	return "quiz:room:" + roomID
}
