package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/chefscript/backend/internal/types"
)

// historyExpiration is how long a recipe stays in the rolling history.
const historyExpiration = 12 * time.Hour

// HistoryService keeps each user's rolling recipe history in Redis. Entries
// older than 12 hours are pruned whenever the history is loaded.
type HistoryService struct {
	redis *redis.Client
	now   func() time.Time
}

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(redisClient *redis.Client) *HistoryService {
	return &HistoryService{
		redis: redisClient,
		now:   time.Now,
	}
}

func historyKey(userID uuid.UUID) string {
	return fmt.Sprintf("recipe:history:%s", userID)
}

// Load returns the user's history with expired entries pruned. Pruning is
// persisted so the stored list shrinks over time.
func (s *HistoryService) Load(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error) {
	data, err := s.redis.Get(ctx, historyKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []types.Recipe{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe history: %w", err)
	}

	var recipes []types.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe history: %w", err)
	}

	cutoff := s.now().Add(-historyExpiration)
	valid := make([]types.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.CreatedAt.After(cutoff) {
			valid = append(valid, r)
		}
	}

	if len(valid) != len(recipes) {
		if err := s.Save(ctx, userID, valid); err != nil {
			return nil, err
		}
	}

	return valid, nil
}

// Save replaces the user's history
func (s *HistoryService) Save(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) error {
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(userID), data, historyExpiration).Err(); err != nil {
		return fmt.Errorf("failed to save recipe history: %w", err)
	}
	return nil
}

// Prepend adds recipes to the front of the user's history
func (s *HistoryService) Prepend(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) error {
	existing, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	return s.Save(ctx, userID, append(recipes, existing...))
}

// Update replaces one recipe in the user's history by id
func (s *HistoryService) Update(ctx context.Context, userID uuid.UUID, recipe types.Recipe) error {
	existing, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].ID == recipe.ID {
			existing[i] = recipe
		}
	}
	return s.Save(ctx, userID, existing)
}

// Clear removes the user's entire history
func (s *HistoryService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.redis.Del(ctx, historyKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear recipe history: %w", err)
	}
	return nil
}
