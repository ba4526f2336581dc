package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gip-inclusion/dora-api/pkg/config"
	"github.com/gip-inclusion/dora-api/pkg/database"
	"github.com/gip-inclusion/dora-api/pkg/logger"
)

var steps int

// NewCommand returns the "migrate" command and its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back or inspect the orientation schema migrations.`,
	}

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE:  runVersion,
	}
}

func open() (*database.Migrator, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	m, err := database.OpenMigrator(cfg.Database, logr)
	if err != nil {
		return nil, nil, err
	}
	return m, logr, nil
}

func runUp(_ *cobra.Command, _ []string) error {
	m, logr, err := open()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck
	defer m.Close()

	logr.Info("running up migrations")
	return m.Up()
}

func runDown(_ *cobra.Command, _ []string) error {
	m, logr, err := open()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck
	defer m.Close()

	logr.Info("running down migrations", zap.Int("steps", steps))
	return m.Down(steps)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	m, logr, err := open()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
	return nil
}
