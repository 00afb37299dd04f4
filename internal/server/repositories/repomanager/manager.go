package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sharedtodo/internal/dbx"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/items"
)

// RepositoryManager hands out the item store and change feed, and owns the
// schema they run on.
type RepositoryManager interface {
	// RunMigrations brings the schema up to date. Concurrent callers against
	// the same database are serialized.
	RunMigrations(ctx context.Context, db *sql.DB) error
	// SchemaVersion is the last applied migration.
	SchemaVersion(ctx context.Context, db *sql.DB) (int64, error)

	Items(db dbx.DBTX) items.Repository
	Feed(db *sql.DB) items.ChangeFeed
}
