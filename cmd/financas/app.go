package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vitorcapdeville/financas/pkg/config"
	"github.com/vitorcapdeville/financas/pkg/importer"
	"github.com/vitorcapdeville/financas/pkg/parser"
	"github.com/vitorcapdeville/financas/pkg/repository"
	"github.com/vitorcapdeville/financas/pkg/rules"
	"github.com/vitorcapdeville/financas/pkg/store"
	"github.com/vitorcapdeville/financas/pkg/transactions"
)

// app holds what every command needs once configuration is resolved.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	registry *parser.Registry
	store    repository.Store
	close    func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "financas",
	})
	logger.SetLevel(cfg.Level())

	s, closeFn, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: parser.DefaultRegistry(logger),
		store:    s,
		close:    closeFn,
	}, nil
}

// run builds the app, calls fn and releases the store.
func run(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.logger.Warn("failed to close store", "err", err)
		}
	}()
	return fn(a)
}

func (a *app) importer() *importer.Importer {
	return importer.New(a.registry, a.store, a.logger)
}

func (a *app) rules() *rules.Service {
	return rules.NewService(a.store.Rules(), a.store.Transactions(), a.store.Tags(), a.logger)
}

func (a *app) transactions() *transactions.Service {
	return transactions.NewService(a.store.Transactions(), a.store.Tags(), a.store.Settings(), a.logger)
}

func (a *app) settings() *transactions.SettingService {
	return transactions.NewSettingService(a.store.Settings())
}

func (a *app) tags() *transactions.TagService {
	return transactions.NewTagService(a.store.Tags())
}
