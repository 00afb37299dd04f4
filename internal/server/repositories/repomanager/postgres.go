// Package repomanager binds the PostgreSQL item store and change feed to a
// connection and applies the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sharedtodo/internal/dbx"
	"github.com/dmitrijs2005/sharedtodo/internal/server/migrations"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/items"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// migrationLockKey is the pg_advisory_lock key held while migrating, so two
// servers starting against one database do not apply the same step twice.
const migrationLockKey int64 = 0x7368617265647464

// PostgresRepositoryManager is the RepositoryManager for PostgreSQL.
type PostgresRepositoryManager struct{}

// Items returns the item store over db, which may be a transaction.
func (m *PostgresRepositoryManager) Items(db dbx.DBTX) items.Repository {
	return items.NewPostgresRepository(db)
}

// Feed returns the LISTEN/NOTIFY change feed. It needs the pool itself
// because every listener pins a connection.
func (m *PostgresRepositoryManager) Feed(db *sql.DB) items.ChangeFeed {
	return items.NewPostgresFeed(db)
}

// goose seams for tests.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseVersion = goose.GetDBVersionContext
)

func setupGoose() error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// RunMigrations applies every pending migration while holding the
// migration advisory lock on a dedicated connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migration conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SchemaVersion reports the version recorded in goose's version table.
func (m *PostgresRepositoryManager) SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}
	v, err := gooseVersion(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}

// NewPostgresRepositoryManager returns the PostgreSQL RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
