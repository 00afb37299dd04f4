// Package items provides the PostgreSQL-backed item store and its change feed.
package items

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
)

// Repository is the item store contract consumed by the services.
//
// Mutations of vote sets must run inside a transaction and start with
// GetForUpdate, which holds the row lock until commit.
type Repository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	GetForUpdate(ctx context.Context, id string) (*models.Item, error)
	Save(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id string) error
	ListBySpace(ctx context.Context, spaceID string) ([]*models.Item, error)
	ListDueForReset(ctx context.Context, spaceID string, now time.Time) ([]*models.Item, error)
	ListSpacesDueForReset(ctx context.Context, now time.Time) ([]string, error)
}

// ChangeFeed reports which spaces had item changes.
type ChangeFeed interface {
	// Listen delivers a space id for every committed change until ctx is done,
	// then closes the channel.
	Listen(ctx context.Context) (<-chan string, error)
}
