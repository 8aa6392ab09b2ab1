// Package main applies the saves schema migrations to the PostgreSQL save
// store named by the player configuration.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/cardstack/internal/config"
	"github.com/cory-johannsen/cardstack/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/player.yaml", "path to configuration file")
	migrationsDir := flag.String("path", "migrations", "directory holding the migration files")
	direction := flag.String("direction", postgres.Up, "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	v := config.NewViper()
	v.SetConfigFile(*configPath)
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("reading config: %v", err)
	}

	var dbCfg config.DatabaseConfig
	if err := v.UnmarshalKey("database", &dbCfg); err != nil {
		log.Fatalf("parsing database config: %v", err)
	}

	res, err := postgres.Migrate(dbCfg.DSN(), *migrationsDir, *direction, *steps)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if !res.Changed {
		fmt.Fprintf(os.Stdout, "saves schema unchanged (version=%d dirty=%v) [%s]\n", res.Version, res.Dirty, time.Since(start))
		return
	}
	fmt.Fprintf(os.Stdout, "saves schema migrated %s to version=%d dirty=%v [%s]\n", *direction, res.Version, res.Dirty, time.Since(start))
}
