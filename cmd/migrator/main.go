package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	dsnFlag        = "dsn"
	migrationsFlag = "migrations"
	downFlag       = "down"
)

type flags struct {
	dsn        string
	migrations string
	down       bool
}

func main() {
	f := parseFlags()
	validateFlags(f)
	migrateStorage(f)
}

// migrationLogger routes migrate output to slog.
type migrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func newMigrationLogger() *migrationLogger {
	return &migrationLogger{
		logger:  slog.Default().With("component", "migrator"),
		verbose: true,
	}
}

func (ml *migrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (ml *migrationLogger) Verbose() bool {
	return ml.verbose
}

func parseFlags() flags {
	dsn := pflag.StringP(dsnFlag, "d", "", "postgres connection string without scheme, user:pass@host:port/db")
	migrations := pflag.StringP(migrationsFlag, "m", "./migrations", "migrations directory")
	down := pflag.Bool(downFlag, false, "roll back every applied migration")
	pflag.Parse()
	return flags{dsn: *dsn, migrations: *migrations, down: *down}
}

func validateFlags(f flags) {
	var errs []error

	if f.dsn == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", dsnFlag))
	}

	if f.migrations == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationsFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

func migrateStorage(f flags) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", f.migrations),
		fmt.Sprintf("pgx5://%s", f.dsn),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer m.Close()

	m.Log = newMigrationLogger()

	apply, direction := m.Up, "up"
	if f.down {
		apply, direction = m.Down, "down"
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "direction", direction, "err", err)
		fallDown()
	}
	m.Log.Printf("migrations applied: %s", direction)
}

func fallDown() {
	os.Exit(2)
}
