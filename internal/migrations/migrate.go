package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const (
	sqliteDialect = "sqlite3"
	migrationsDir = "sql"
)

//go:embed sql/*.sql
var embedded embed.FS

// zapLogger routes goose output through zap.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapLogger) Printf(format string, v ...any) {
	l.sugar.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l zapLogger) Fatalf(format string, v ...any) {
	l.sugar.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func setup(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetLogger(zapLogger{sugar: logger.Sugar()})
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Up runs all pending SQL migrations bundled with the binary, logging progress to logger.
func Up(db *sql.DB, logger *zap.Logger) error {
	if err := setup(logger); err != nil {
		return err
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// Version reports the schema version currently applied to db.
func Version(db *sql.DB) (int64, error) {
	if err := setup(nil); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read goose version: %w", err)
	}
	return version, nil
}
