package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// oraNameInUse is raised by CREATE for an object that already exists.
const oraNameInUse = "ORA-00955"

// RunMigrations executes every embedded *.up.sql file in name order. Each file holds a
// single statement; re-running over an existing schema is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("could not list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		stmt := strings.TrimSuffix(strings.TrimSpace(string(content)), ";")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), oraNameInUse) {
				logger.Info("Migration already applied", zap.String("file", name))
				continue
			}
			return fmt.Errorf("could not execute migration %s: %w", name, err)
		}
		logger.Info("Executed migration", zap.String("file", name))
	}

	logger.Info("Migrations completed successfully", zap.Int("files", len(names)))
	return nil
}
