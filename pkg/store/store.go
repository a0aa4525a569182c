// Package store selects the repository backend named by the configuration.
package store

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vitorcapdeville/financas/pkg/config"
	"github.com/vitorcapdeville/financas/pkg/repository"
	"github.com/vitorcapdeville/financas/pkg/store/memory"
	"github.com/vitorcapdeville/financas/pkg/store/sqlstore"
)

// Open returns the configured store and a function releasing it.
func Open(cfg config.DatabaseConfig, logger *log.Logger) (repository.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Debug("using in-memory store")
		return memory.New(), func() error { return nil }, nil
	case config.DriverMySQL:
		s, err := sqlstore.Open(cfg.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("connected to mysql")
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
