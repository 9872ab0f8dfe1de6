// braid-api serves the workflow management and trigger API.
package main

import (
	"context"
	"os"
	"strconv"

	cli "github.com/urfave/cli/v3"

	"github.com/braid-run/braid/pkg/cmd"
	"github.com/braid-run/braid/pkg/log"
	"github.com/braid-run/braid/pkg/registry"
	"github.com/braid-run/braid/pkg/services"
	"github.com/braid-run/braid/pkg/web"
	"github.com/braid-run/braid/pkg/workflow"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "braid-api",
		Usage:                 "Create, publish, and run workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Braid API")

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

			handlers := web.NewAPIHandlers(
				services.NewWorkflow(store, reg),
				services.NewRunner(engine, q),
				services.NewHistory(store),
				services.NewCredentials(store, credStore),
				reg,
			)

			app := web.NewApp(handlers)

			return app.Listen(":" + strconv.Itoa(command.Int("port")))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
