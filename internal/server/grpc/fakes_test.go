package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/logging"
	"github.com/dmitrijs2005/sharedtodo/internal/server/auth"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/dmitrijs2005/sharedtodo/internal/server/services"
	"google.golang.org/grpc/metadata"
)

// ---- test logger ----

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeItems struct {
	item    *models.Item
	items   []*models.Item
	deleted *services.DeletionResult
	err     error

	gotSpace  string
	gotMember string
	gotText   string
	gotRec    *models.Recurrence

	snapshots [][]*models.Item
	// hang, when set, keeps Subscribe open until it is closed, ignoring ctx
	hang chan struct{}
}

func (f *fakeItems) AddItem(ctx context.Context, spaceID, memberID, text string, rec models.Recurrence) (*models.Item, error) {
	f.gotSpace, f.gotMember, f.gotText, f.gotRec = spaceID, memberID, text, &rec
	return f.item, f.err
}

func (f *fakeItems) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	return f.item, f.err
}

func (f *fakeItems) ListItems(ctx context.Context, spaceID string) ([]*models.Item, error) {
	f.gotSpace = spaceID
	return f.items, f.err
}

func (f *fakeItems) ToggleCompletion(ctx context.Context, itemID, memberID string) (*models.Item, error) {
	f.gotMember = memberID
	return f.item, f.err
}

func (f *fakeItems) ToggleDeletion(ctx context.Context, itemID, memberID string) (*services.DeletionResult, error) {
	f.gotMember = memberID
	return f.deleted, f.err
}

func (f *fakeItems) EditItem(ctx context.Context, itemID, text string, rec *models.Recurrence) (*models.Item, error) {
	f.gotText, f.gotRec = text, rec
	return f.item, f.err
}

func (f *fakeItems) Subscribe(ctx context.Context, spaceID string, send func([]*models.Item) error) error {
	if f.err != nil {
		return f.err
	}
	for _, snap := range f.snapshots {
		if err := send(snap); err != nil {
			return err
		}
	}
	if f.hang != nil {
		<-f.hang
		return nil
	}
	<-ctx.Done()
	return nil
}

type fakeScanner struct {
	report services.ResetReport
	err    error
}

func (f *fakeScanner) ScanAndReset(ctx context.Context, spaceID string) (services.ResetReport, error) {
	f.report.SpaceID = spaceID
	return f.report, f.err
}

type fakeExporter struct {
	report  *services.HistoryReport
	result  *services.ExportResult
	err     error
	gotYear int
}

func (f *fakeExporter) BuildReport(ctx context.Context, itemID string, year int, creatorID string) (*services.HistoryReport, error) {
	f.gotYear = year
	return f.report, f.err
}

func (f *fakeExporter) ExportHistory(ctx context.Context, itemID string, year int, creatorID string) (*services.ExportResult, error) {
	f.gotYear = year
	return f.result, f.err
}

// ---- helpers ----

const testSecret = "secret"

func newTestServer(items *fakeItems, scanner *fakeScanner, exporter *fakeExporter) *GRPCServer {
	s, _ := NewGRPCServer("127.0.0.1:0", nopLogger{}, items, scanner, exporter, testSecret, time.UTC)
	s.now = func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }
	return s
}

func memberCtx(id string) context.Context {
	return context.WithValue(context.Background(), memberIDKey, id)
}

func tokenFor(t *testing.T, memberID string, validity time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(memberID, []byte(testSecret), validity)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func incomingWithToken(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func sampleItem() *models.Item {
	next := time.Date(2025, 3, 5, 4, 0, 0, 0, time.UTC)
	return &models.Item{
		ID:          "i1",
		Text:        "Water plants",
		SpaceID:     "space-1",
		CreatedByID: "alice",
		CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		CompletedBy: []string{"alice"},
		Recurrence:  models.Recurrence{Type: models.RecurrenceDaily, NextReset: &next},
		CompletionHistory: map[string]models.DayRecord{
			"2025-03-04": {Completed: true, CompletedBy: []string{"alice"}},
		},
	}
}
