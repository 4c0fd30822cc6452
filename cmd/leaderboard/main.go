// Command leaderboard is the Scoracle leaderboard CLI.
//
// Usage:
//
//	scoracle-leaderboard rank
//	scoracle-leaderboard rank --source https://example.com/Leaderboard.csv --format json
//	scoracle-leaderboard rank --source data/Leaderboard.csv --top 5
//	scoracle-leaderboard archive --source data/Leaderboard.csv
//	scoracle-leaderboard prune --days 30
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-leaderboard/internal/archive"
	"github.com/albapepper/scoracle-leaderboard/internal/config"
	"github.com/albapepper/scoracle-leaderboard/internal/db"
	"github.com/albapepper/scoracle-leaderboard/internal/leaderboard"
	"github.com/albapepper/scoracle-leaderboard/internal/source"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "scoracle-leaderboard",
		Short:        "Scoracle leaderboard CLI",
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(rankCmd())
	root.AddCommand(archiveCmd())
	root.AddCommand(pruneCmd())
	return root
}

// --------------------------------------------------------------------------
// rank command
// --------------------------------------------------------------------------

func rankCmd() *cobra.Command {
	var (
		sources []string
		format  string
		top     int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Load the leaderboard CSV once and print the ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), sources, func(ctx context.Context, cfg *config.Config, snap leaderboard.Snapshot) error {
				return leaderboard.Write(cmd.OutOrStdout(), snap.Document(top), format)
			})
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Candidate location (URL or file), repeatable; defaults to LEADERBOARD_SOURCES")
	cmd.Flags().StringVar(&format, "format", leaderboard.FormatTable, "Output format (table, json, yaml)")
	cmd.Flags().IntVar(&top, "top", 0, "Only print the first N teams; 0 = all")
	return cmd
}

// --------------------------------------------------------------------------
// archive command
// --------------------------------------------------------------------------

func archiveCmd() *cobra.Command {
	var sources []string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Load the leaderboard CSV once and save the snapshot to Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), sources, func(ctx context.Context, cfg *config.Config, snap leaderboard.Snapshot) error {
				return withStore(ctx, cfg, func(store *archive.Store) error {
					if err := store.Save(ctx, snap); err != nil {
						return err
					}
					logger.Info("Snapshot archived", "summary", snap.Summary())
					return nil
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Candidate location (URL or file), repeatable; defaults to LEADERBOARD_SOURCES")
	return cmd
}

// --------------------------------------------------------------------------
// prune command
// --------------------------------------------------------------------------

func pruneCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete archived snapshots older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			ctx, cancel := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return withStore(ctx, cfg, func(store *archive.Store) error {
				n, err := store.Prune(ctx, time.Now().AddDate(0, 0, -days))
				if err != nil {
					return err
				}
				logger.Info("Prune complete", "deleted", n, "days", days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Retention in days")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runLoad handles config loading, context cancellation and one load+rank.
func runLoad(parent context.Context, sources []string, fn func(ctx context.Context, cfg *config.Config, snap leaderboard.Snapshot) error) error {
	ctx, cancel := signal.NotifyContext(contextOrBackground(parent), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(sources) == 0 {
		sources = cfg.Sources
	}

	loader := source.NewLoader(logger,
		source.WithTimeout(cfg.FetchTimeout),
		source.WithRequestsPerMinute(cfg.FetchPerMinute))

	start := time.Now()
	snap := leaderboard.Build(ctx, loader, sources)
	logger.Info("Leaderboard loaded",
		"duration", time.Since(start).Round(time.Millisecond),
		"summary", snap.Summary())

	return fn(ctx, cfg, snap)
}

// withStore connects to the archive database for the duration of fn.
func withStore(ctx context.Context, cfg *config.Config, fn func(store *archive.Store) error) error {
	if !cfg.ArchiveEnabled() {
		return fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(archive.NewStore(pool.Pool, logger))
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
