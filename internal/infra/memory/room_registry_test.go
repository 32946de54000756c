package memory

import (
	"testing"
	"time"
)

func TestRoomRegistryLifecycle(t *testing.T) {
	registry := NewRoomRegistry()

	session := registry.GetOrCreate("ROOM", "conn-1")
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := registry.GetOrCreate("ROOM", "conn-2"); again != session {
		t.Fatalf("second GetOrCreate must return the existing session")
	}
	if _, ok := registry.Get("ROOM"); !ok {
		t.Fatalf("expected session present")
	}

	registry.Remove("ROOM")
	if _, ok := registry.Get("ROOM"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestRoomRegistrySweepReapsIdleSessions(t *testing.T) {
	registry := NewRoomRegistry()
	registry.GetOrCreate("ROOM", "conn-1")

	if n := registry.Sweep(time.Hour); n != 0 {
		t.Fatalf("fresh session must survive the sweep, reaped %d", n)
	}
	if n := registry.Sweep(0); n != 1 {
		t.Fatalf("expected idle session reaped, got %d", n)
	}
	if _, ok := registry.Get("ROOM"); ok {
		t.Fatalf("expected swept session gone")
	}
}
