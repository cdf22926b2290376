package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/idleparty/internal/config"
)

var (
	migrateDirection string
	migrateSteps     int
	migrationsDir    string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres save-store migrations",
	RunE:  runMigrations,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDirection, "direction", "up", "migration direction: up or down")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of steps (0 = all)")
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory holding the migration files")
}

func runMigrations(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if migrateDirection != "up" && migrateDirection != "down" {
		return fmt.Errorf("invalid direction %q: must be 'up' or 'down'", migrateDirection)
	}

	m, err := migrate.New("file://"+migrationsDir, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case migrateSteps > 0 && migrateDirection == "up":
		err = m.Steps(migrateSteps)
	case migrateSteps > 0:
		err = m.Steps(-migrateSteps)
	case migrateDirection == "up":
		err = m.Up()
	default:
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, _ := m.Version()
	elapsed := time.Since(start)
	out := cmd.OutOrStdout()
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(out, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, elapsed)
	} else {
		fmt.Fprintf(out, "migrated %s to version=%d dirty=%v [%s]\n", migrateDirection, version, dirty, elapsed)
	}
	return nil
}
