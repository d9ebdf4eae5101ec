package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/looptalk/flowgraph/config"
	"github.com/looptalk/flowgraph/internal/migration"
)

// =============================================================================
// Workflow Store Migration Commands
// =============================================================================

// runMigrate handles the migrate command and its subcommands
func runMigrate(args []string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "up":
		runMigrateUp(subargs)
	case "down":
		runMigrateDown(subargs)
	case "status":
		runMigrateStatus(subargs)
	case "version":
		runMigrateVersion(subargs)
	case "reset":
		runMigrateReset(subargs)
	case "help", "-h", "--help":
		printMigrateUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate subcommand: %s\n", subcommand)
		printMigrateUsage()
		os.Exit(1)
	}
}

// printMigrateUsage prints the usage information for migrate command
func printMigrateUsage() {
	fmt.Println(`Workflow Store Migration Commands

Migrations apply to the SQLite workflow store only; the memory, file,
Redis, and MongoDB backends are schemaless.

Usage:
  flowgraphd migrate <subcommand> [options]

Subcommands:
  up        Apply all pending migrations
  down      Rollback the last migration
  status    Show migration status
  version   Show current migration version
  reset     Rollback all migrations
  help      Show this help message

Options:
  --config <path>   Path to configuration file (YAML)
  --db <path>       SQLite database path (default: from config)

Examples:
  flowgraphd migrate up
  flowgraphd migrate up --config /etc/flowgraph/config.yaml
  flowgraphd migrate status
  flowgraphd migrate reset`)
}

// createMigrator creates a migrator from command line flags
func createMigrator(name string, args []string) *migration.DefaultMigrator {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		os.Exit(1)
	}

	path := *dbPath
	if path == "" {
		loader := config.NewLoader()
		if *configPath != "" {
			loader = loader.WithConfigPath(*configPath)
		}
		cfg, err := loader.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		path = cfg.Store.SQLite.Path
	}

	migrator, err := migration.NewMigrator(&migration.Config{
		DatabaseURL: migration.BuildDatabaseURL(path),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	return migrator
}

// runMigrateUp applies all pending migrations
func runMigrateUp(args []string) {
	migrator := createMigrator("migrate up", args)
	defer migrator.Close()

	if err := migrator.Up(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migrations applied")
}

// runMigrateDown rolls back the last migration
func runMigrateDown(args []string) {
	migrator := createMigrator("migrate down", args)
	defer migrator.Close()

	if err := migrator.Down(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Migration rollback failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Last migration rolled back")
}

// runMigrateStatus shows the status of all migrations
func runMigrateStatus(args []string) {
	migrator := createMigrator("migrate status", args)
	defer migrator.Close()

	ctx := context.Background()
	statuses, err := migrator.Status(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get status: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration status:")
	for _, st := range statuses {
		state := "pending"
		if st.Applied {
			state = "applied"
		}
		if st.Dirty {
			state += " (dirty)"
		}
		fmt.Printf("  %06d_%s  %s\n", st.Version, st.Name, state)
	}

	info, err := migrator.Info(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get info: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Applied %d of %d migrations (%d pending)\n",
		info.AppliedMigrations, info.TotalMigrations, info.PendingMigrations)
}

// runMigrateVersion shows the current migration version
func runMigrateVersion(args []string) {
	migrator := createMigrator("migrate version", args)
	defer migrator.Close()

	version, dirty, err := migrator.Version(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get version: %v\n", err)
		os.Exit(1)
	}

	if version == 0 {
		fmt.Println("No migrations applied")
		return
	}
	if dirty {
		fmt.Printf("Version: %d (dirty)\n", version)
		return
	}
	fmt.Printf("Version: %d\n", version)
}

// runMigrateReset rolls back all migrations
func runMigrateReset(args []string) {
	migrator := createMigrator("migrate reset", args)
	defer migrator.Close()

	if err := migrator.DownAll(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Reset failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("All migrations rolled back")
}
