package redis

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"
)

// ProfileStore backs the XP and achievement collaborators with Redis:
//
//	INCRBY quiz:xp:{userID} amount
//	SADD   quiz:achievements:{userID} {achievementID}
//
// Implements app.ProfileService and app.AchievementService.
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (p *ProfileStore) AwardXP(ctx context.Context, userID string, amount int) (int, bool, error) {
	total, err := p.client.IncrBy(ctx, p.xpKey(userID), int64(amount)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("award xp: %w", err)
	}
	newLevel := level(int(total))
	return newLevel, newLevel > level(int(total)-amount), nil
}

func (p *ProfileStore) CheckAndAward(ctx context.Context, userID, achievementID string) (bool, error) {
	added, err := p.client.SAdd(ctx, p.achievementsKey(userID), achievementID).Result()
	if err != nil {
		return false, fmt.Errorf("award achievement: %w", err)
	}
	// SADD reports 0 for an already-present member, which is exactly the
	// idempotency the contract asks for.
	return added == 1, nil
}

func (p *ProfileStore) xpKey(userID string) string {
	return "quiz:xp:" + userID
}

func (p *ProfileStore) achievementsKey(userID string) string {
	return "quiz:achievements:" + userID
}

// level derives the tier from total XP: floor(sqrt(xp/100)) + 1.
func level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Sqrt(float64(totalXP)/100)) + 1
}
