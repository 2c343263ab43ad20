package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/config"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	linesplugin "github.com/ArionMiles/spendnote/pkg/plugins/readers/lines"
	storereaderplugin "github.com/ArionMiles/spendnote/pkg/plugins/readers/store"
	csvplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/csv"
	sheetsplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/sheets"
	storewriterplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/store"
	"github.com/ArionMiles/spendnote/pkg/store"
	"github.com/ArionMiles/spendnote/pkg/store/jsonfile"
	"github.com/ArionMiles/spendnote/pkg/store/postgres"
)

// app is the open store and the ledger over it.
type app struct {
	store  store.Store
	ledger *ledger.Service
	loc    *time.Location
}

func openApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := ledger.New(st, ledger.Config{
		Location:          loc,
		LearnedCategories: cfg.LearnedCategories,
	}, logger.With("component", "ledger"))

	return &app{store: st, ledger: svc, loc: loc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
}

func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store {
	case config.StorePostgres:
		st, err := postgres.New(ctx, postgres.Config{ConnString: c.Postgres.ConnString()}, logger.With("component", "postgres"))
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return st, nil
	default:
		st, err := jsonfile.New(c.DataFile, logger.With("component", "jsonfile"))
		if err != nil {
			return nil, fmt.Errorf("opening json store: %w", err)
		}
		return st, nil
	}
}

// newRegistry registers every reader and writer plugin.
func newRegistry() (*plugins.Registry, error) {
	registry := plugins.NewRegistry()

	for _, p := range []plugins.ReaderPlugin{
		&linesplugin.Plugin{},
		&storereaderplugin.Plugin{},
	} {
		if err := registry.RegisterReader(p); err != nil {
			return nil, err
		}
	}

	for _, p := range []plugins.WriterPlugin{
		&csvplugin.Plugin{},
		&sheetsplugin.Plugin{},
		&storewriterplugin.Plugin{},
	} {
		if err := registry.RegisterWriter(p); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
