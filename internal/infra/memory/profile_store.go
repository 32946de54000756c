package memory

import (
	"context"
	"math"
	"sync"
)

// ProfileStore keeps XP totals and unlocked achievements in process. It
// implements both app.ProfileService and app.AchievementService for the
// no-redis dev mode and tests.
type ProfileStore struct {
	mu           sync.Mutex
	xp           map[string]int
	achievements map[string]map[string]bool
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		xp:           make(map[string]int),
		achievements: make(map[string]map[string]bool),
	}
}

// Level derives the tier from total XP: floor(sqrt(xp/100)) + 1.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Sqrt(float64(totalXP)/100)) + 1
}

func (p *ProfileStore) AwardXP(_ context.Context, userID string, amount int) (int, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.xp[userID]
	p.xp[userID] = before + amount
	newLevel := Level(before + amount)
	return newLevel, newLevel > Level(before), nil
}

func (p *ProfileStore) CheckAndAward(_ context.Context, userID, achievementID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	unlocked, ok := p.achievements[userID]
	if !ok {
		unlocked = make(map[string]bool)
		p.achievements[userID] = unlocked
	}
	if unlocked[achievementID] {
		return false, nil
	}
	unlocked[achievementID] = true
	return true, nil
}
