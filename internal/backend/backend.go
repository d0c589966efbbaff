// Package backend builds the configured row store and dresses it with the
// read-through cache, so binaries pick a backend with one env var and the
// rest of the portal only ever sees the RowStore port.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expenseportal/internal/config"
	ports "expenseportal/internal/sheets"
	"expenseportal/internal/sheets/cached"
	"expenseportal/internal/sheets/google"
	"expenseportal/internal/sheets/memory"
	"expenseportal/internal/storage"
)

type Type string

const (
	Memory Type = "memory"
	Sheets Type = "sheets"
	SQLite Type = "sqlite"
)

type CleanupFunc func() error

// Result carries the ready-to-use store and its teardown.
type Result struct {
	Rows    *cached.Store
	Cleanup CleanupFunc
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the row store named by cfg.DataBackend, seeds the header
// rows, and wraps the result in the TTL cache.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	var (
		rows    ports.RowStore
		cleanup CleanupFunc
	)

	switch Type(cfg.DataBackend) {
	case Memory:
		store := memory.New()
		store.EnsureSheet(cfg.UsersSheet, ports.UsersHeader)
		store.EnsureSheet(cfg.LedgerSheet, ports.LedgerHeader)
		store.EnsureSheet(cfg.DraftsSheet, ports.DraftsHeader)
		rows = store
		f.logger.Info("Initialized memory backend")

	case SQLite:
		store, serr := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if serr != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", serr)
		}
		for _, seed := range []struct {
			sheet  string
			header []string
		}{
			{cfg.UsersSheet, ports.UsersHeader},
			{cfg.LedgerSheet, ports.LedgerHeader},
			{cfg.DraftsSheet, ports.DraftsHeader},
		} {
			if err := store.EnsureHeader(ctx, seed.sheet, seed.header); err != nil {
				store.Close()
				return nil, fmt.Errorf("seed %s header: %w", seed.sheet, err)
			}
		}
		rows = store
		cleanup = store.Close
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	case Sheets:
		client, serr := google.NewFromEnv(ctx)
		if serr != nil {
			return nil, fmt.Errorf("initialize Google Sheets client: %w", serr)
		}
		// Tabs and headers are provisioned out of band; the portal only
		// reads and writes them.
		rows = google.NewSpreadsheet(client, cfg.GoogleSpreadsheetID)
		f.logger.Info("Initialized Google Sheets backend",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}

	return &Result{
		Rows:    cached.New(rows, cfg.CacheMaxSize, cfg.CacheTTL),
		Cleanup: cleanup,
	}, nil
}
