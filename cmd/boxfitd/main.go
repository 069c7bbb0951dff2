// Command boxfitd serves the box picker over HTTP.
//
// Configuration is read from ~/.boxfit/config.json, then overridden by a
// .env file in the working directory and BOXFIT_* environment variables.
//
// Build:
//   go build -o boxfitd ./cmd/boxfitd
//
// Run with Postgres instead of the default SQLite file:
//   BOXFIT_DB_DRIVER=pgx BOXFIT_DB_DSN=postgres://localhost/boxfit ./boxfitd

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/BoxFit/internal/engine"
	"github.com/piwi3910/BoxFit/internal/model"
	"github.com/piwi3910/BoxFit/internal/project"
	"github.com/piwi3910/BoxFit/internal/server"
	"github.com/piwi3910/BoxFit/internal/session"
	"github.com/piwi3910/BoxFit/internal/store"
)

func main() {
	configPath := flag.String("config", project.DefaultConfigPath(), "path to config.json")
	envFile := flag.String("env", ".env", "path to a .env file (ignored when missing)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, logger); err != nil {
		logger.Error("boxfitd stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, envFile string, logger *slog.Logger) error {
	cfg, err := project.LoadAppConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err = project.ApplyEnv(cfg, envFile)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	boxes, products, err := loadCatalog(ctx, st, logger)
	if err != nil {
		return err
	}

	sess := session.New(
		engine.NewSelector(engine.OptionsFromConfig(cfg)),
		session.WithTimeout(cfg.Timeout()),
		session.WithLogger(logger),
	)
	sess.SetBoxes(boxes)
	sess.SetProducts(products)

	srv := server.New(sess, st, logger, cfg.Seed)
	return srv.Run(ctx, cfg.Addr)
}

// loadCatalog reads the stored catalogs, seeding the generated default box
// catalog into an empty database.
func loadCatalog(ctx context.Context, st *store.Store, logger *slog.Logger) ([]model.Box, []model.Product, error) {
	boxes, err := st.ListBoxes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list boxes: %w", err)
	}
	if len(boxes) == 0 {
		boxes = project.GenerateBoxCatalog(project.DefaultCatalogSize)
		if err := st.SaveBoxes(ctx, boxes); err != nil {
			return nil, nil, fmt.Errorf("seed boxes: %w", err)
		}
		logger.Info("seeded box catalog", "boxes", len(boxes))
	}

	products, err := st.ListProducts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}
	logger.Info("catalog loaded", "boxes", len(boxes), "products", len(products))
	return boxes, products, nil
}
