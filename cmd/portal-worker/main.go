// portal-worker consumes portal notifications and keeps an activity log, plus
// a periodic digest of the approval backlog so admins notice stuck entries
// without opening the portal.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenseportal/internal/backend"
	"expenseportal/internal/config"
	"expenseportal/internal/draft"
	"expenseportal/internal/events"
	"expenseportal/internal/ledger"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting portal-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	drafts := draft.NewStore(result.Rows, cfg.DraftsSheet)
	ledgerSvc := ledger.NewService(result.Rows, cfg.LedgerSheet, drafts, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eventsClient.Consume(gctx, func(n *events.Notification) error {
			switch n.Kind {
			case events.KindSubmitted:
				logger.Info("Expenses submitted",
					"owner_id", n.OwnerID, "month", n.Month, "year", n.Year,
					"entries", len(n.EntryIDs))
			case events.KindDecided:
				logger.Info("Expense decided",
					"entry_id", n.EntryID, "status", n.Status, "approver_id", n.ApproverID)
			default:
				logger.Warn("Unknown notification kind", "kind", n.Kind)
			}
			return nil
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				pending, err := ledgerSvc.ListPending(gctx)
				if err != nil {
					logger.Error("Pending digest failed", "error", err)
					continue
				}
				if len(pending) > 0 {
					logger.Info("Approval backlog", "pending", len(pending))
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
