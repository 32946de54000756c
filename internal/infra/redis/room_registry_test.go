package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRoomRegistrySetsAndClearsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	registry := NewRoomRegistry(newClient(mr), time.Minute)

	_ = registry.GetOrCreate("ROOM", "conn-1")
	if !mr.Exists("quiz:room:ROOM") {
		t.Fatalf("expected liveness key set")
	}

	registry.Remove("ROOM")
	if mr.Exists("quiz:room:ROOM") {
		t.Fatalf("expected liveness key removed")
	}
}

func TestRoomRegistrySweepClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	registry := NewRoomRegistry(newClient(mr), time.Minute)
	_ = registry.GetOrCreate("ROOM", "conn-1")

	if n := registry.Sweep(0); n != 1 {
		t.Fatalf("expected one reaped session, got %d", n)
	}
	if mr.Exists("quiz:room:ROOM") {
		t.Fatalf("expected liveness key removed by sweep")
	}
	if _, ok := registry.Get("ROOM"); ok {
		t.Fatalf("expected session gone after sweep")
	}
}
