package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/dbx"
	"github.com/dmitrijs2005/sharedtodo/internal/server/config"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/dmitrijs2005/sharedtodo/internal/server/recurrence"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/items"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/repomanager"
)

// -------- test fakes --------

// memRepo is an in-memory items.Repository. Reads hand out copies so that
// only Save changes what is stored.
type memRepo struct {
	mu    sync.Mutex
	items map[string]*models.Item
	seq   int

	saveErr   map[string]error
	listErr   error
	spacesErr error

	saves   int
	deleted []string

	// locked counts GetForUpdate calls per item made inside a transaction;
	// unlockedTxReads counts plain Gets made inside one.
	locked          map[string]int
	unlockedTxReads int
}

var _ items.Repository = (*memRepo)(nil)

func newMemRepo(list ...*models.Item) *memRepo {
	r := &memRepo{items: map[string]*models.Item{}, saveErr: map[string]error{}, locked: map[string]int{}}
	for _, it := range list {
		r.items[it.ID] = it.Clone()
	}
	return r
}

func (r *memRepo) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if item.ID == "" {
		item.ID = fmt.Sprintf("item-%d", r.seq)
	}
	r.items[item.ID] = item.Clone()
	return item, nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return it.Clone(), nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	return r.Get(ctx, id)
}

// txRepo is memRepo as seen through a *sql.Tx. A read-modify-write inside
// a transaction must go through GetForUpdate, so a plain Get here fails.
type txRepo struct {
	*memRepo
}

func (r txRepo) Get(ctx context.Context, id string) (*models.Item, error) {
	r.mu.Lock()
	r.unlockedTxReads++
	r.mu.Unlock()
	return nil, fmt.Errorf("get %s inside a transaction without a row lock", id)
}

func (r txRepo) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	r.mu.Lock()
	r.locked[id]++
	r.mu.Unlock()
	return r.memRepo.Get(ctx, id)
}

// dbRepo is memRepo as seen through the pool. Outside a transaction a row
// lock would be released at once, so GetForUpdate fails.
type dbRepo struct {
	*memRepo
}

func (r dbRepo) GetForUpdate(ctx context.Context, id string) (*models.Item, error) {
	return nil, fmt.Errorf("lock %s outside a transaction", id)
}

func (r *memRepo) lockCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked[id]
}

func (r *memRepo) Save(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErr[item.ID]; err != nil {
		return err
	}
	if _, ok := r.items[item.ID]; !ok {
		return common.ErrorNotFound
	}
	r.saves++
	r.items[item.ID] = item.Clone()
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memRepo) ListBySpace(ctx context.Context, spaceID string) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Item
	for _, it := range r.items {
		if it.SpaceID == spaceID {
			out = append(out, it.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) ListDueForReset(ctx context.Context, spaceID string, now time.Time) ([]*models.Item, error) {
	all, err := r.ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	var out []*models.Item
	for _, it := range all {
		if recurrence.Due(it, now) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memRepo) ListSpacesDueForReset(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spacesErr != nil {
		return nil, r.spacesErr
	}
	seen := map[string]bool{}
	var out []string
	for _, it := range r.items {
		if recurrence.Due(it, now) && !seen[it.SpaceID] {
			seen[it.SpaceID] = true
			out = append(out, it.SpaceID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memRepo) stored(id string) *models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil
	}
	return it.Clone()
}

type fakeFeed struct {
	ch  chan string
	err error
}

func (f *fakeFeed) Listen(ctx context.Context) (<-chan string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	repo *memRepo
	feed *fakeFeed
}

func (m *fakeRepoManager) Items(db dbx.DBTX) items.Repository {
	if _, ok := db.(*sql.Tx); ok {
		return txRepo{m.repo}
	}
	return dbRepo{m.repo}
}

func (m *fakeRepoManager) Feed(db *sql.DB) items.ChangeFeed { return m.feed }

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Timezone = "UTC"
	cfg.S3Bucket = "bucket"
	return cfg
}

// fixedClock returns a settable clock for a service's now field.
type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
