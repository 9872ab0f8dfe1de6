package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/persistence/postgresql"
	"github.com/braid-run/braid/pkg/queue"
)

// NewQueue builds a job queue from a queue URL. "postgres" reuses the
// connection pool of a Postgres persistence layer, "redis://..." connects to
// Redis, and "memory" is the in-process queue for local development.
func NewQueue(ctx context.Context, logger *slog.Logger, queueURL string, store persistence.Persistence) (queue.Queue, error) {
	switch {
	case queueURL == "memory":
		logger.WarnContext(ctx, "Using in-memory queue, jobs will not survive a restart")

		return queue.NewMemoryQueue(), nil
	case queueURL == "postgres":
		pg, ok := store.(*postgresql.Persistence)
		if !ok {
			return nil, fmt.Errorf("postgres queue requires postgres persistence")
		}

		return queue.NewPostgresQueue(pg.DB(), logger), nil
	case strings.HasPrefix(queueURL, "redis://"), strings.HasPrefix(queueURL, "rediss://"):
		options, err := redis.ParseURL(queueURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis URL: %w", err)
		}

		return queue.NewRedisQueue(ctx, logger, options.Addr, options.Password, options.DB)
	default:
		return nil, fmt.Errorf("unsupported queue URL %q", queueURL)
	}
}
