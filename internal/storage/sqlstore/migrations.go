package sqlstore

import (
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/syncutil"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its filesystem, dialect and logger in package globals.
var migrationMutex syncutil.Mutex

// gooseLogAdapter routes goose output into the structured logger.
type gooseLogAdapter struct{}

func (*gooseLogAdapter) Printf(format string, v ...any) {
	logging.Logger().Info(fmt.Sprintf(format, v...), logging.KeyOperation, "migrate")
}

func (*gooseLogAdapter) Fatalf(format string, v ...any) {
	logging.Logger().Error(fmt.Sprintf(format, v...), logging.KeyOperation, "migrate")
	os.Exit(1)
}

// MigrateUp applies every pending migration in migrationDir of fsys.
func MigrateUp(db *sql.DB, fsys embed.FS, migrationDir string) error {
	migrationMutex.Lock()
	defer migrationMutex.Unlock()

	goose.SetLogger(&gooseLogAdapter{})
	goose.SetBaseFS(fsys)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("error setting goose dialect: %w", err)
	}

	if err := goose.Up(db, migrationDir); err != nil {
		return fmt.Errorf("error running migrations up: %w", err)
	}
	return nil
}
