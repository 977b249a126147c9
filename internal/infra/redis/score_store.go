// Package redis backs the scoreboard store with Redis so stats survive
// restarts and can be shared between instances.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"quizrunner/internal/domain"
)

const keyPrefix = "quizStats:"

// ScoreStore keeps one JSON value per quiz under quizStats:<quizKey>.
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

func (s *ScoreStore) Get(ctx context.Context, quizKey string) (domain.ScoreEntry, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+quizKey).Result()
	if err == redis.Nil {
		return domain.ScoreEntry{}, false, nil
	}
	if err != nil {
		return domain.ScoreEntry{}, false, fmt.Errorf("get score entry: %w", err)
	}
	var entry domain.ScoreEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt entry reads as absent; the next record overwrites it.
		return domain.ScoreEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *ScoreStore) Put(ctx context.Context, quizKey string, entry domain.ScoreEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+quizKey, data, 0).Err(); err != nil {
		return fmt.Errorf("put score entry: %w", err)
	}
	return nil
}

func (s *ScoreStore) All(ctx context.Context) (map[string]domain.ScoreEntry, error) {
	out := make(map[string]domain.ScoreEntry)
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		var entry domain.ScoreEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		out[strings.TrimPrefix(key, keyPrefix)] = entry
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan score entries: %w", err)
	}
	return out, nil
}
