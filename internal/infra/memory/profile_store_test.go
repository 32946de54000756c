package memory

import (
	"context"
	"testing"
)

func TestLevelCurve(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
	}
	for _, tc := range cases {
		if got := Level(tc.xp); got != tc.want {
			t.Fatalf("Level(%d)=%d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestAwardXPReportsLevelUp(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	newLevel, leveledUp, err := store.AwardXP(ctx, "u1", 50)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if newLevel != 1 || leveledUp {
		t.Fatalf("50 xp stays level 1, got level=%d up=%v", newLevel, leveledUp)
	}

	newLevel, leveledUp, err = store.AwardXP(ctx, "u1", 60)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if newLevel != 2 || !leveledUp {
		t.Fatalf("crossing 100 xp must level up, got level=%d up=%v", newLevel, leveledUp)
	}
}

func TestCheckAndAwardIsIdempotent(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	unlocked, err := store.CheckAndAward(ctx, "u1", "first_quiz")
	if err != nil || !unlocked {
		t.Fatalf("first award must unlock, got %v %v", unlocked, err)
	}
	unlocked, err = store.CheckAndAward(ctx, "u1", "first_quiz")
	if err != nil || unlocked {
		t.Fatalf("second award must be a no-op, got %v %v", unlocked, err)
	}
}
