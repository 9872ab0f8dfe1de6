// braid-worker polls the job queue and runs queued executions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/braid-run/braid/pkg/cmd"
	"github.com/braid-run/braid/pkg/dispatcher"
	"github.com/braid-run/braid/pkg/log"
	"github.com/braid-run/braid/pkg/registry"
	"github.com/braid-run/braid/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "braid-worker",
		Usage:                 "Process queued workflow executions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "queue-url",
				Usage:   "Job queue URL (memory, postgres, or redis://...)",
				Value:   "postgres",
				Sources: cli.EnvVars("QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:     "credential-key",
				Usage:    "Hex-encoded 32-byte key for credential encryption",
				Required: true,
				Sources:  cli.EnvVars("CREDENTIAL_KEY"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often the queue is polled for new jobs",
				Value:   dispatcher.DefaultPollInterval,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing Braid worker")

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			q, err := cmd.NewQueue(ctx, logger, command.String("queue-url"), store)
			if err != nil {
				return err
			}

			defer func() {
				if err := q.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close queue", "error", err)
				}
			}()

			credStore, err := cmd.NewCredentialStore(store, command.String("credential-key"))
			if err != nil {
				return err
			}

			reg := registry.NewRegistry(logger)
			registry.RegisterDefaultExecutors(reg)

			engine := workflow.NewOrchestrator(logger, store, reg, credStore, nil)

			d := dispatcher.NewDispatcher(logger, q, engine, command.Duration("poll-interval"))
			d.Start(ctx)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Shutting down worker")
			d.Stop()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
