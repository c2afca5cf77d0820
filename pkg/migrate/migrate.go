package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk root of the migration sources; each driver keeps
// its own subdirectory.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedded embed.FS

// goose keeps dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// Dialect maps a configured driver to the goose dialect and the embedded
// migration directory for that driver.
func Dialect(driver string) (string, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case config.DriverSQLite:
		return "sqlite3", path.Join("migrations", config.DriverSQLite), nil
	case config.DriverPostgres:
		return "postgres", path.Join("migrations", config.DriverPostgres), nil
	default:
		return "", "", fmt.Errorf("unsupported migration driver %q", driver)
	}
}

// Files lists the embedded migration filenames for driver in version order.
func Files(driver string) ([]string, error) {
	_, dir, err := Dialect(driver)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(embedded, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Source returns the contents of one embedded migration file.
func Source(driver, name string) (string, error) {
	_, dir, err := Dialect(driver)
	if err != nil {
		return "", err
	}
	b, err := fs.ReadFile(embedded, path.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read migration %q: %w", name, err)
	}
	return string(b), nil
}

// Run executes a goose command against the embedded migrations for driver.
// logg may be nil, in which case goose output is discarded.
func Run(ctx context.Context, db *sql.DB, driver string, logg goose.Logger, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dialect, dir, err := Dialect(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepare(dialect, logg); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string, logg goose.Logger) error {
	return Run(ctx, db, driver, logg, "up")
}

// Version returns the current schema version recorded by goose.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	dialect, _, err := Dialect(driver)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepare(dialect, nil); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, driver string, logg goose.Logger, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	dialect, dir, err := Dialect(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepare(dialect, logg); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}

func prepare(dialect string, logg goose.Logger) error {
	goose.SetBaseFS(embedded)
	if logg != nil {
		goose.SetLogger(logg)
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
