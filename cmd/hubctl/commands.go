package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/learnhub/activity-hub/config"
	"github.com/learnhub/activity-hub/internal/app"
	"github.com/learnhub/activity-hub/internal/application/command"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/seed"
	"github.com/learnhub/activity-hub/internal/interface/http/handlers"
	"github.com/learnhub/activity-hub/pkg/logger"
)

// errMemoryDriver rejects commands that only make sense against Postgres.
var errMemoryDriver = errors.New("STORAGE_DRIVER=memory keeps no state between runs; point hubctl at postgres")

// --- Global Command Variables ---
var (
	cfg *config.Config
	log *logger.Logger

	olderThan time.Duration

	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration

	rootCmd = &cobra.Command{
		Use:           "hubctl",
		Short:         "Administer the activity hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			log = app.NewLogger(cfg).With(logger.Component("hubctl"))
			return nil
		},
	}

	// --- Schema ---
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE:  runMigrateStatus,
	}
	migrateRollbackCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE:  runMigrateRollback,
	}

	// --- Data ---
	pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete activities older than --older-than",
		Args:  cobra.NoArgs,
		RunE:  runPrune,
	}
	seedDemoCmd = &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert the demo users, courses, progress and activities",
		Args:  cobra.NoArgs,
		RunE:  runSeedDemo,
	}

	// --- Auth ---
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
)

func init() {
	migrateCmd.AddCommand(migrateStatusCmd, migrateRollbackCmd)

	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 0, "retention age, e.g. 720h (defaults to RETENTION_MAX_AGE)")

	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "user id placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "user", "role claim: user or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")

	rootCmd.AddCommand(migrateCmd, pruneCmd, seedDemoCmd, tokenCmd)
}

// connect opens Postgres for the commands that need it.
func connect(ctx context.Context) (*postgres.Connection, error) {
	if cfg.UseMemoryStore() {
		return nil, errMemoryDriver
	}
	return app.Connect(ctx, cfg)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return app.Migrate(ctx, conn, log)
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	status, err := postgres.NewMigrator(conn).Status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, m := range status {
		applied := "-"
		if m.IsApplied {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, m.Name, applied)
	}
	return w.Flush()
}

func runMigrateRollback(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Rollback(ctx); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	log.Info("rolled back latest migration")
	return nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if cfg.UseMemoryStore() {
		return errMemoryDriver
	}

	maxAge := olderThan
	if maxAge == 0 {
		maxAge = cfg.Retention.MaxAge
	}

	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	res, err := app.NewCommands(storage.Repos, log).Prune.Handle(ctx, command.PruneActivitiesCommand{MaxAge: maxAge})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d activities created before %s\n",
		res.Deleted, res.Cutoff.Format(time.RFC3339))
	return nil
}

func runSeedDemo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := app.Migrate(ctx, conn, log); err != nil {
		return err
	}

	ds := seed.Demo(time.Now())
	if err := postgres.Seed(ctx, conn, ds); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	log.Info("demo data loaded",
		logger.Int("users", len(ds.Users)),
		logger.Int("courses", len(ds.Courses)),
		logger.Int("activities", len(ds.Activities)),
	)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	token, err := handlers.IssueToken(handlers.AuthConfig{
		Secret: cfg.Auth.Secret,
		Issuer: cfg.Auth.Issuer,
	}, tokenSubject, tokenRole, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
