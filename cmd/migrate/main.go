// Command migrate applies the database schema migrations.
//
// Usage: migrate [-config path] [-migrations dir] [-steps n] [up|down|version]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ashfall-games/wasteland/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrationsDir := flag.String("migrations", "migrations", "directory containing migration files")
	steps := flag.Int("steps", 0, "limit to n steps (0 = all)")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(*configPath, *migrationsDir, command, *steps); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, migrationsDir, command string, steps int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return errors.New("no database configured; the server is running on the in-memory store")
	}

	m, err := migrate.New("file://"+migrationsDir, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		err = migrate.ErrNoChange
	default:
		return fmt.Errorf("unknown command %q: want up, down, or version", command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running %s: %w", command, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", verr)
	}
	fmt.Fprintf(os.Stdout, "schema version %d (dirty=%v)\n", version, dirty)
	return nil
}
