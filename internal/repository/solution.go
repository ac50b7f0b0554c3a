package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const solutionKeyPrefix = "solution:"

type SolutionRepository interface {
	Get(ctx context.Context, key string) (entity.Solution, bool, error)
	Save(ctx context.Context, key string, solution entity.Solution) error
	DeleteByKey(ctx context.Context, key string) error
}

type dbSolution struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSolutionRepository stores solved positions under "solution:<board key>". A zero ttl
// keeps entries forever.
func NewSolutionRepository(client *redis.Client, ttl time.Duration) SolutionRepository {
	return &dbSolution{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbSolution) Save(ctx context.Context, key string, solution entity.Solution) error {
	solutionJSON, err := json.Marshal(solution)
	if err != nil {
		return fmt.Errorf("could not marshal solution: %w", err)
	}

	if err = that.client.Set(ctx, solutionKeyPrefix+key, solutionJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set solution: %w", err)
	}

	return nil
}

func (that *dbSolution) Get(ctx context.Context, key string) (entity.Solution, bool, error) {
	response, err := that.client.Get(ctx, solutionKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Solution{}, false, nil
	}

	if err != nil {
		return entity.Solution{}, false, fmt.Errorf("failed to get solution by key: %w", err)
	}

	var solution entity.Solution
	if err = json.Unmarshal([]byte(response), &solution); err != nil {
		return entity.Solution{}, false, fmt.Errorf("failed to unmarshal solution: %w", err)
	}

	return solution, true, nil
}

func (that *dbSolution) DeleteByKey(ctx context.Context, key string) error {
	if err := that.client.Del(ctx, solutionKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete solution by key: %w", err)
	}

	return nil
}
