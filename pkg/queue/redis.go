package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/braid-run/braid/pkg/models"
)

const (
	redisPendingKey = "braid:jobs:pending"
	redisJobPrefix  = "braid:jobs:data:"
)

// claimScript pops the oldest due member of the pending set and returns its
// payload. Running as a script makes the claim atomic across workers.
var claimScript = redis.NewScript(`
	local entries = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
	if #entries == 0 then
		return false
	end

	local jobID = entries[1]
	redis.call('ZREM', KEYS[1], jobID)

	return redis.call('GET', KEYS[2] .. jobID)
`)

// RedisQueue stores job payloads as JSON values and orders pending jobs in a
// sorted set scored by their eligibility time.
type RedisQueue struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisQueue(ctx context.Context, logger *slog.Logger, addr, password string, db int) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "db", db)

	return &RedisQueue{client: client, logger: logger, now: time.Now}, nil
}

var _ Queue = (*RedisQueue)(nil)

func (q *RedisQueue) Enqueue(ctx context.Context, job *models.ExecutionJob) error {
	if job.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate job ID: %w", err)
		}

		job.ID = id.String()
	}

	now := q.now().UTC()

	job.Status = models.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	score := float64(now.UnixMilli())
	if job.ScheduledAt != nil {
		score = float64(job.ScheduledAt.UnixMilli())
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, redisJobPrefix+job.ID, payload, 0)
	pipe.ZAdd(ctx, redisPendingKey, redis.Z{Score: score, Member: job.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*models.ExecutionJob, error) {
	now := q.now().UTC()

	result, err := claimScript.Run(ctx, q.client,
		[]string{redisPendingKey, redisJobPrefix},
		now.UnixMilli()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	payload, ok := result.(string)
	if !ok {
		return nil, nil
	}

	var job models.ExecutionJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job payload: %w", err)
	}

	job.Status = models.JobStatusProcessing
	job.UpdatedAt = now

	if err := q.saveJob(ctx, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

func (q *RedisQueue) MarkCompleted(ctx context.Context, jobID string) error {
	return q.seal(ctx, jobID, models.JobStatusCompleted, nil)
}

func (q *RedisQueue) MarkFailed(ctx context.Context, jobID string, message string) error {
	return q.seal(ctx, jobID, models.JobStatusFailed, &message)
}

func (q *RedisQueue) seal(ctx context.Context, jobID string, status models.JobStatus, message *string) error {
	payload, err := q.client.Get(ctx, redisJobPrefix+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}

		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	var job models.ExecutionJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return fmt.Errorf("failed to parse job payload: %w", err)
	}

	job.Status = status
	job.Error = message
	job.UpdatedAt = q.now().UTC()

	return q.saveJob(ctx, &job)
}

func (q *RedisQueue) saveJob(ctx context.Context, job *models.ExecutionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	if err := q.client.Set(ctx, redisJobPrefix+job.ID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	return nil
}

func (q *RedisQueue) PendingCount(ctx context.Context) (int64, error) {
	count, err := q.client.ZCard(ctx, redisPendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	return count, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
