package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"github.com/dmitrijs2005/sharedtodo/internal/client/client"
	"github.com/dmitrijs2005/sharedtodo/internal/client/config"
)

type fakeClient struct {
	item      *api.Item
	items     []*api.Item
	deletion  *api.ToggleDeletionResponse
	grid      *api.YearGridResponse
	report    *api.ScanAndResetResponse
	export    *api.ExportHistoryResponse
	snapshots []*api.Snapshot
	err       error
	resetErr  error

	gotSpace   string
	gotItem    string
	gotText    string
	gotRec     *api.Recurrence
	gotYear    int
	gotCreator string
	resets     int
	closed     bool
}

func (f *fakeClient) Close() error                   { f.closed = true; return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return f.err }

func (f *fakeClient) AddItem(ctx context.Context, spaceID, text string, rec *api.Recurrence) (*api.Item, error) {
	f.gotSpace, f.gotText, f.gotRec = spaceID, text, rec
	return f.item, f.err
}

func (f *fakeClient) GetItem(ctx context.Context, itemID string) (*api.Item, error) {
	f.gotItem = itemID
	return f.item, f.err
}

func (f *fakeClient) ListItems(ctx context.Context, spaceID string) ([]*api.Item, error) {
	f.gotSpace = spaceID
	return f.items, f.err
}

func (f *fakeClient) ToggleCompletion(ctx context.Context, itemID string) (*api.Item, error) {
	f.gotItem = itemID
	return f.item, f.err
}

func (f *fakeClient) ToggleDeletion(ctx context.Context, itemID string) (*api.ToggleDeletionResponse, error) {
	f.gotItem = itemID
	return f.deletion, f.err
}

func (f *fakeClient) EditItem(ctx context.Context, itemID, text string, rec *api.Recurrence) (*api.Item, error) {
	f.gotItem, f.gotText, f.gotRec = itemID, text, rec
	return f.item, f.err
}

func (f *fakeClient) YearGrid(ctx context.Context, itemID string, year int, creatorID string) (*api.YearGridResponse, error) {
	f.gotItem, f.gotYear, f.gotCreator = itemID, year, creatorID
	return f.grid, f.err
}

func (f *fakeClient) ScanAndReset(ctx context.Context, spaceID string) (*api.ScanAndResetResponse, error) {
	f.gotSpace = spaceID
	f.resets++
	if f.resetErr != nil {
		return nil, f.resetErr
	}
	return f.report, f.err
}

func (f *fakeClient) ExportHistory(ctx context.Context, itemID string, year int, creatorID string) (*api.ExportHistoryResponse, error) {
	f.gotItem, f.gotYear, f.gotCreator = itemID, year, creatorID
	return f.export, f.err
}

func (f *fakeClient) Subscribe(ctx context.Context, spaceID string, fn func(*api.Snapshot) error) error {
	f.gotSpace = spaceID
	if f.err != nil {
		return f.err
	}
	for _, s := range f.snapshots {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// execute runs the root command against fc and returns what it printed.
func execute(t *testing.T, fc *fakeClient, args ...string) (string, error) {
	t.Helper()

	for _, k := range []string{"SERVER_ADDR", "TOKEN", "SPACE", "TIMEOUT", "OUTPUT"} {
		t.Setenv(config.EnvPrefix+k, "")
	}

	origClient, origTerm := newClient, isTerminal
	newClient = func(*config.Config) (client.Client, error) { return fc, nil }
	isTerminal = func(io.Writer) bool { return false }
	t.Cleanup(func() { newClient, isTerminal = origClient, origTerm })

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
