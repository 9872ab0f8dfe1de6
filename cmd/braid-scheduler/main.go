// braid-scheduler enqueues jobs for schedule-trigger nodes on published
// workflows.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/braid-run/braid/pkg/cmd"
	"github.com/braid-run/braid/pkg/log"
	"github.com/braid-run/braid/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "braid-scheduler",
		Usage:                 "Turn workflow schedules into queued jobs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
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
			&cli.DurationFlag{
				Name:    "refresh-interval",
				Usage:   "How often published workflows are rescanned for schedules",
				Value:   scheduler.DefaultRefreshInterval,
				Sources: cli.EnvVars("REFRESH_INTERVAL"),
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
			logger := log.WithModule("scheduler")

			logger.InfoContext(ctx, "Initializing Braid scheduler")

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

			s := scheduler.NewScheduler(logger, store, q, command.Duration("refresh-interval"))
			if err := s.Start(ctx); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Shutting down scheduler")
			s.Stop()

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
