// Package cli defines the collab command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"collab-go/app/config"
	"collab-go/app/server"

	"github.com/spf13/cobra"
)

// NewRootCommand returns the collab command. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "collab",
		Short:         "Project collaboration backend: accounts, projects, messages and task threads",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("COLLAB_CONFIG"), "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and constraints for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configPath)
		},
	})
	return root
}

// Execute runs the root command with signal-aware context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("collab failed", "error", err)
		return 1
	}
	return 0
}

func load(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	level, _ := cfg.Log.SlogLevel()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := load(configPath)
	if err != nil {
		return err
	}
	st, err := server.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
	}
	return server.New(cfg, st).Run(ctx)
}

func migrate(ctx context.Context, configPath string) error {
	cfg, err := load(configPath)
	if err != nil {
		return err
	}
	st, err := server.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
	}
	slog.Info("Schema is up to date", "store", cfg.Store.Driver)
	return nil
}
