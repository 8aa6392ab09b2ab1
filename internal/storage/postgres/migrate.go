package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration directions.
const (
	Up   = "up"
	Down = "down"
)

// MigrateResult reports the schema version after a migration run.
type MigrateResult struct {
	Version uint
	Dirty   bool
	// Changed is false when no migration was pending.
	Changed bool
}

// Migrate applies the migrations in dir to the database at dsn. steps limits
// the number of migrations applied; 0 applies all of them.
//
// Precondition: direction is Up or Down; steps >= 0.
// Postcondition: Returns the resulting version; a run with nothing to do is
// not an error.
func Migrate(dsn, dir, direction string, steps int) (MigrateResult, error) {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case direction == Up && steps > 0:
		err = m.Steps(steps)
	case direction == Up:
		err = m.Up()
	case direction == Down && steps > 0:
		err = m.Steps(-steps)
	case direction == Down:
		err = m.Down()
	default:
		return MigrateResult{}, fmt.Errorf("invalid direction %q: must be %q or %q", direction, Up, Down)
	}

	res := MigrateResult{Changed: true}
	if errors.Is(err, migrate.ErrNoChange) {
		res.Changed, err = false, nil
	}
	if err != nil {
		return MigrateResult{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	res.Version, res.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrateResult{}, fmt.Errorf("reading schema version: %w", err)
	}
	return res, nil
}
