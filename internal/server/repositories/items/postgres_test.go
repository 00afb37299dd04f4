package items

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/google/go-cmp/cmp"
)

const (
	itemID  = "6f1c2f6e-3c1b-4d8e-9a61-0b7c8e1f2a3b"
	spaceID = "space-1"
)

var columns = []string{
	"id", "space_id", "text", "created_by_id", "created_at", "completed_by", "deleted_by",
	"recurrence_type", "recurrence_interval", "recurrence_weekdays", "last_completed", "next_reset", "completion_history",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func dailyRow(created, next time.Time) []driver.Value {
	return []driver.Value{
		itemID, spaceID, "Water plants", "alice", created,
		[]byte(`["alice"]`), []byte(`[]`),
		"daily", int64(0), []byte(`[]`), nil, next,
		[]byte(`{"2025-03-03":{"completed":true,"completedBy":["bob"]}}`),
	}
}

func TestGet_DecodesRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	next := time.Date(2025, 3, 5, 4, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM items WHERE id = \$1$`).
		WithArgs(itemID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(dailyRow(created, next)...))

	got, err := repo.Get(context.Background(), itemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &models.Item{
		ID:          itemID,
		Text:        "Water plants",
		SpaceID:     spaceID,
		CreatedByID: "alice",
		CreatedAt:   created,
		CompletedBy: []string{"alice"},
		DeletedBy:   []string{},
		Recurrence: models.Recurrence{
			Type:      models.RecurrenceDaily,
			NextReset: &next,
		},
		CompletionHistory: map[string]models.DayRecord{
			"2025-03-03": {Completed: true, CompletedBy: []string{"bob"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("item mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM items WHERE id = \$1 FOR UPDATE`).
		WithArgs(itemID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(dailyRow(now, now)...))

	if _, err := repo.GetForUpdate(context.Background(), itemID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM items`).
		WithArgs(itemID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), itemID)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGet_InvalidIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Get(context.Background(), "not-a-uuid")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestGet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM items`).
		WithArgs(itemID).
		WillReturnError(errors.New("db is down"))

	_, err := repo.Get(context.Background(), itemID)
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_AssignsIDAndEmptySets(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO items .* RETURNING id`).
		WithArgs(
			sqlmock.AnyArg(), "Buy milk", "[]", "[]", "once", int64(0), "[]",
			nil, nil, "{}", spaceID, "alice", created,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(itemID))

	got, err := repo.Create(context.Background(), &models.Item{
		Text:        "Buy milk",
		SpaceID:     spaceID,
		CreatedByID: "alice",
		CreatedAt:   created,
		Recurrence:  models.Recurrence{Type: models.RecurrenceOnce},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != itemID {
		t.Fatalf("want id %s, got %s", itemID, got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSave_WritesAllMutableFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	last := time.Date(2025, 3, 4, 4, 30, 0, 0, time.UTC)
	next := time.Date(2025, 3, 6, 4, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE items SET .* WHERE id = \$1`).
		WithArgs(
			itemID, "Gym", `["alice","bob"]`, `["bob"]`, "weekly", int64(0), `[1,3]`,
			last, next, `{"2025-03-03":{"completed":true,"completedBy":["alice"]}}`,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &models.Item{
		ID:          itemID,
		Text:        "Gym",
		CompletedBy: []string{"alice", "bob"},
		DeletedBy:   []string{"bob"},
		Recurrence: models.Recurrence{
			Type:          models.RecurrenceWeekly,
			Weekdays:      []int{1, 3},
			LastCompleted: &last,
			NextReset:     &next,
		},
		CompletionHistory: map[string]models.DayRecord{
			"2025-03-03": {Completed: true, CompletedBy: []string{"alice"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSave_MissingRowIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE items SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), &models.Item{ID: itemID, Text: "x"})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSave_RowsAffectedError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE items SET`).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := repo.Save(context.Background(), &models.Item{ID: itemID, Text: "x"})
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM items WHERE id = \$1`).
		WithArgs(itemID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM items WHERE id = \$1`).
		WithArgs(itemID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), itemID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), itemID); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("second delete: want ErrorNotFound, got %v", err)
	}
}

func TestListBySpace_NewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow(dailyRow(now, now)...).
		AddRow(dailyRow(now.Add(-time.Hour), now)...)

	mock.ExpectQuery(`SELECT .* FROM items WHERE space_id = \$1 ORDER BY created_at DESC`).
		WithArgs(spaceID).
		WillReturnRows(rows)

	got, err := repo.ListBySpace(context.Background(), spaceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 items, got %d", len(got))
	}
}

func TestListDueForReset_FiltersInSQL(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 5, 4, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE space_id = \$1 AND completed AND recurrence_type <> 'once' AND next_reset < \$2`).
		WithArgs(spaceID, now).
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListDueForReset(context.Background(), spaceID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no items, got %d", len(got))
	}
}

func TestListSpacesDueForReset(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 5, 4, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT DISTINCT space_id FROM items`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"space_id"}).AddRow("s1").AddRow("s2"))

	got, err := repo.ListSpacesDueForReset(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"s1", "s2"}, got); diff != "" {
		t.Fatalf("spaces mismatch (-want +got):\n%s", diff)
	}
}

func TestListSpacesDueForReset_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT DISTINCT space_id FROM items`).WillReturnError(errors.New("boom"))

	if _, err := repo.ListSpacesDueForReset(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresFeed_ListenError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("LISTEN item_changes").WillReturnError(errors.New("denied"))

	if _, err := NewPostgresFeed(db).Listen(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestPostgresFeed_ClosesWhenDriverCannotWait(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("LISTEN item_changes").WillReturnResult(sqlmock.NewResult(0, 0))

	ch, err := NewPostgresFeed(db).Listen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("feed did not close")
	}
}
