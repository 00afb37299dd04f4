package client

import (
	"context"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
)

// Client is the API contract of the shared list backend as seen by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	AddItem(ctx context.Context, spaceID, text string, rec *api.Recurrence) (*api.Item, error)
	GetItem(ctx context.Context, itemID string) (*api.Item, error)
	ListItems(ctx context.Context, spaceID string) ([]*api.Item, error)
	ToggleCompletion(ctx context.Context, itemID string) (*api.Item, error)
	ToggleDeletion(ctx context.Context, itemID string) (*api.ToggleDeletionResponse, error)
	EditItem(ctx context.Context, itemID, text string, rec *api.Recurrence) (*api.Item, error)
	YearGrid(ctx context.Context, itemID string, year int, creatorID string) (*api.YearGridResponse, error)
	ScanAndReset(ctx context.Context, spaceID string) (*api.ScanAndResetResponse, error)
	ExportHistory(ctx context.Context, itemID string, year int, creatorID string) (*api.ExportHistoryResponse, error)
	Subscribe(ctx context.Context, spaceID string, fn func(*api.Snapshot) error) error
}
