package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/accountd/internal/account"
	"github.com/jon4hz/accountd/internal/api"
	"github.com/jon4hz/accountd/internal/avatar"
	"github.com/jon4hz/accountd/internal/config"
	"github.com/jon4hz/accountd/internal/database"
	"github.com/jon4hz/accountd/internal/password"
	"github.com/jon4hz/accountd/internal/storage"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the accountd server",
	Long:  `Start the accountd HTTP API server.`,
	Example: `accountd serve --config config.yml
accountd serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newService wires the account service from the configuration.
func newService(ctx context.Context, cfg *config.Config, db database.DB) (*account.Service, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	return account.NewService(
		db,
		password.New(cfg.Password.BcryptCost),
		store,
		avatar.NewProcessor(cfg.Upload.MaxWidth, cfg.Upload.MaxHeight, cfg.Upload.Quality),
		cfg.Upload.MaxBytes(),
	), nil
}

// mediaDir returns the directory the API serves uploads from, or "" when
// uploads live in a backend that serves them itself.
func mediaDir(cfg *config.Config) string {
	if cfg.Storage.Type != config.StorageTypeLocal || cfg.Storage.Local == nil {
		return ""
	}
	return cfg.Storage.Local.Dir
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, db)
	if err != nil {
		return err
	}

	server, err := api.New(cfg, svc, mediaDir(cfg), cfg.Upload.MaxBytes(), log.GetLevel() == log.DebugLevel)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	log.Info("accountd started successfully", "storage", cfg.Storage.Type, "database", cfg.Database.Driver)
	if err := server.Run(ctx); err != nil {
		return err
	}
	log.Info("accountd stopped")
	return nil
}
