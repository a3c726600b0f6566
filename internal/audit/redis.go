package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mergington-activities/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrEventPublishFailed = errors.New("EVENT_PUBLISH_FAILED")

type RedisSinkConfig struct {
	Channel     string
	RecentKey   string
	RecentLimit int
}

// RedisSink publishes events on a pub/sub channel and keeps the most recent
// ones in a capped list, newest first.
type RedisSink struct {
	client redis.Cmdable
	config RedisSinkConfig
}

func NewRedisSink(client redis.Cmdable, cfg RedisSinkConfig) *RedisSink {
	return &RedisSink{client: client, config: cfg}
}

func (s *RedisSink) Record(ctx context.Context, event models.EnrollmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", ErrEventPublishFailed, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, s.config.Channel, payload)
		if s.config.RecentKey != "" && s.config.RecentLimit > 0 {
			pipe.LPush(ctx, s.config.RecentKey, payload)
			pipe.LTrim(ctx, s.config.RecentKey, 0, int64(s.config.RecentLimit-1))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEventPublishFailed, err)
	}
	return nil
}

// Recent returns up to limit of the newest events kept in the recent list.
func (s *RedisSink) Recent(ctx context.Context, limit int) ([]models.EnrollmentEvent, error) {
	if s.config.RecentKey == "" || limit <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.config.RecentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent events: %w", err)
	}

	events := make([]models.EnrollmentEvent, 0, len(raw))
	for _, item := range raw {
		var event models.EnrollmentEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
