// Package storage implements the idempotent expense store. Two backends are
// available: SQLite (default) and Postgres. Both keep a confirmed table and
// a pending-clarification table with identical column sets, keyed by the
// envelope WID.
package storage

import (
	"fmt"

	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/service"
)

// NewFromConfig creates the storage backend selected by the configuration.
func NewFromConfig(cfg config.DatabaseConfig) (service.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteStorage(cfg.Path)
	case "postgres":
		return NewPostgresStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
