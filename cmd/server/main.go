package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/vitorcapdeville/financas/pkg/config"
	"github.com/vitorcapdeville/financas/pkg/parser"
	"github.com/vitorcapdeville/financas/pkg/server"
	"github.com/vitorcapdeville/financas/pkg/store"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "financas",
	})

	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	cfgFile := flags.StringP("config", "c", "", "Config file")
	flags.String("port", "", "Server port")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Int64("user", 0, "Default user id")
	flags.String("driver", "", "Storage driver (memory, mysql)")
	flags.String("dsn", "", "MySQL DSN")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.Level())

	s, closeStore, err := store.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open store", "err", err)
	}
	defer closeStore()

	srv := server.New(logger, parser.DefaultRegistry(logger), s, cfg.UserID)
	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port)
	logger.Info("starting server", "addr", addr, "driver", cfg.Database.Driver)
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
