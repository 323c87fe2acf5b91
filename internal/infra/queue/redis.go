package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wx-home-bot/internal/domain"
)

// RedisReportQueue реализует очередь задач на базе Redis lists.
type RedisReportQueue struct {
	client *redis.Client
	key    string
}

// NewRedisReportQueue создаёт очередь по указанному ключу.
func NewRedisReportQueue(client *redis.Client, key string) *RedisReportQueue {
	return &RedisReportQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisReportQueue) Enqueue(ctx context.Context, job domain.ReportJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу. При неуспешной обработке задача возвращается в очередь.
func (q *RedisReportQueue) Receive(ctx context.Context) (domain.ReportJob, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ReportJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.ReportJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.ReportJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.ReportJob{}, nil, errors.New("redis queue: unexpected response")
		}
		raw := res[1]
		var job domain.ReportJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return domain.ReportJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.client.RPush(context.Background(), q.key, raw).Err()
		}
		return job, ack, nil
	}
}
