package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chat-search/internal/config"
	"chat-search/internal/db"
	"chat-search/internal/repository"
	"chat-search/internal/service"
)

func newCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply and inspect database migrations",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for the command")

	cmd.AddCommand(
		newUpCmd(&timeout),
		newStatusCmd(&timeout),
		newSeedCmd(&timeout),
	)
	return cmd
}

func newUpCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()
			return withMigrator(ctx, func(m *db.Migrator) error {
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(applied) == 0 {
					fmt.Fprintln(out, "database is up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(out, "applied %s\n", v)
				}
				return nil
			})
		},
	}
}

func newStatusCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()
			return withMigrator(ctx, func(m *db.Migrator) error {
				status, err := m.Status(ctx)
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), status)
			})
		},
	}
}

func newSeedCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo chats and refresh the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()
			return withPool(ctx, func(pool *pgxpool.Pool, _ *zap.Logger) error {
				threads := repository.NewPgThreadRepository(pool)
				res, err := service.SeedDemo(ctx,
					repository.NewPgUserRepository(pool),
					threads,
					service.NewMessageService(repository.NewPgMessageRepository(pool)),
					time.Now().UTC().Add(-time.Duration(len(service.DemoDataset))*time.Hour),
				)
				if err != nil {
					return err
				}
				if err := threads.RefreshSearchIndex(ctx); err != nil {
					return fmt.Errorf("refresh search index: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d chats, %d messages (%d already present)\n",
					res.Threads, res.Messages, res.Skipped)
				return nil
			})
		},
	}
}

func printStatus(w io.Writer, status []db.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
	for _, s := range status {
		applied := "pending"
		if s.AppliedAt != nil {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, s.Name, applied)
	}
	return tw.Flush()
}

func withMigrator(ctx context.Context, fn func(*db.Migrator) error) error {
	return withPool(ctx, func(pool *pgxpool.Pool, logger *zap.Logger) error {
		migrations, err := db.EmbeddedMigrations()
		if err != nil {
			return err
		}
		return fn(db.NewMigrator(pool, migrations, logger))
	})
}

// withPool abre el pool de una conexión, corre fn y lo cierra.
func withPool(ctx context.Context, fn func(*pgxpool.Pool, *zap.Logger) error) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewMigrationPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	return fn(pool, logger)
}
