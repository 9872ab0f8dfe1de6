// Package cmd holds the shared wiring used by the binaries: persistence and
// queue construction from connection URLs.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/braid-run/braid/pkg/persistence"
	"github.com/braid-run/braid/pkg/persistence/memory"
	"github.com/braid-run/braid/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence layer from a database URL. Postgres
// URLs get the real store; the literal "memory" gets the in-process one,
// meant for local development only.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case databaseURL == "memory":
		logger.WarnContext(ctx, "Using in-memory persistence, data will not survive a restart")

		return memory.NewPersistence(), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database URL %q", databaseURL)
	}
}
