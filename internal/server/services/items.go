// Package services implements the shared list operations on top of the
// item store: voting, deletion consensus, editing, live snapshots, the
// periodic reset job and history export.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/dbx"
	"github.com/dmitrijs2005/sharedtodo/internal/logging"
	sc "github.com/dmitrijs2005/sharedtodo/internal/server/config"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/dmitrijs2005/sharedtodo/internal/server/recurrence"
	"github.com/dmitrijs2005/sharedtodo/internal/server/repositories/repomanager"
)

// ItemService runs member actions against the store. Every vote is one
// transaction that holds the item's row lock from read to write.
type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	location    *time.Location
	deletion    deletionPolicy
	now         func() time.Time
}

func NewItemService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *ItemService {
	return &ItemService{
		db:          db,
		repomanager: repomanager,
		logger:      logger.With("module", "items"),
		location:    config.Location(),
		deletion: deletionPolicy{
			Quorum:      config.DeletionQuorum,
			GraceWindow: config.DeletionGraceWindow,
		},
		now: time.Now,
	}
}

// DeletionResult is the outcome of ToggleDeletion. Item is nil when Removed.
type DeletionResult struct {
	Removed bool
	Item    *models.Item
}

func (s *ItemService) clock() time.Time {
	return s.now().In(s.location)
}

// AddItem creates an item in spaceID on behalf of memberID.
func (s *ItemService) AddItem(ctx context.Context, spaceID, memberID, text string, rec models.Recurrence) (*models.Item, error) {
	text, err := models.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	rec, err = rec.Normalize()
	if err != nil {
		return nil, err
	}
	if spaceID == "" {
		return nil, fmt.Errorf("%w: space id must not be empty", common.ErrorValidation)
	}

	now := s.clock()
	rec.LastCompleted = nil

	item := &models.Item{
		Text:              text,
		SpaceID:           spaceID,
		CreatedByID:       memberID,
		CreatedAt:         now,
		CompletedBy:       []string{},
		DeletedBy:         []string{},
		Recurrence:        recurrence.InitialReset(rec, now),
		CompletionHistory: map[string]models.DayRecord{},
	}

	created, err := s.repomanager.Items(s.db).Create(ctx, item)
	if err != nil {
		return nil, storeError("add item", err)
	}

	s.logger.Info(ctx, "item added", "item_id", created.ID, "space_id", spaceID, "recurrence", string(rec.Type))
	return created, nil
}

// GetItem returns one item.
func (s *ItemService) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	item, err := s.repomanager.Items(s.db).Get(ctx, itemID)
	if err != nil {
		return nil, storeError("get item", err)
	}
	return item, nil
}

// ListItems returns the items of a space, newest first.
func (s *ItemService) ListItems(ctx context.Context, spaceID string) ([]*models.Item, error) {
	items, err := s.repomanager.Items(s.db).ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, storeError("list items", err)
	}
	return items, nil
}

// ToggleCompletion flips memberID's done vote and updates today's history
// record in the same write.
func (s *ItemService) ToggleCompletion(ctx context.Context, itemID, memberID string) (*models.Item, error) {
	today := s.clock().Format(common.DateLayout)

	var updated *models.Item
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Items(tx)

		item, err := repo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		applyCompletionVote(item, memberID, today)

		if err := repo.Save(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, storeError("toggle completion", err)
	}

	s.logger.Debug(ctx, "completion toggled", "item_id", itemID, "member_id", memberID, "completed", updated.Completed())
	return updated, nil
}

// ToggleDeletion flips memberID's delete vote. The item is removed once the
// quorum is reached, or immediately when its creator asks within the grace
// window.
func (s *ItemService) ToggleDeletion(ctx context.Context, itemID, memberID string) (*DeletionResult, error) {
	now := s.clock()

	result := &DeletionResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		*result = DeletionResult{}
		repo := s.repomanager.Items(tx)

		item, err := repo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		if s.deletion.apply(item, memberID, now) == deletionRemove {
			result.Removed = true
			return repo.Delete(ctx, itemID)
		}

		if err := repo.Save(ctx, item); err != nil {
			return err
		}
		result.Item = item
		return nil
	})
	if err != nil {
		return nil, storeError("toggle deletion", err)
	}

	if result.Removed {
		s.logger.Info(ctx, "item removed", "item_id", itemID, "member_id", memberID)
	}
	return result, nil
}

// EditItem replaces the text and, when rec is non-nil, the recurrence of an
// item. A new recurrence keeps LastCompleted and gets a fresh NextReset.
func (s *ItemService) EditItem(ctx context.Context, itemID, text string, rec *models.Recurrence) (*models.Item, error) {
	text, err := models.NormalizeText(text)
	if err != nil {
		return nil, err
	}

	var normalized models.Recurrence
	if rec != nil {
		if normalized, err = rec.Normalize(); err != nil {
			return nil, err
		}
	}

	now := s.clock()

	var updated *models.Item
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Items(tx)

		item, err := repo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		item.Text = text
		if rec != nil {
			normalized.LastCompleted = item.Recurrence.LastCompleted
			item.Recurrence = recurrence.InitialReset(normalized, now)
		}

		if err := repo.Save(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, storeError("edit item", err)
	}

	return updated, nil
}

// Subscribe sends the space's items to send right away and again after every
// change to the space, until ctx ends or send fails. Bursts of changes that
// arrive while a snapshot is built are folded into one snapshot.
func (s *ItemService) Subscribe(ctx context.Context, spaceID string, send func([]*models.Item) error) error {
	changes, err := s.repomanager.Feed(s.db).Listen(ctx)
	if err != nil {
		return storeError("subscribe", err)
	}

	push := func() error {
		items, err := s.ListItems(ctx, spaceID)
		if err != nil {
			return err
		}
		return send(items)
	}

	if err := push(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("subscribe: %w: change feed closed", common.ErrorPersistence)
			}
			if !drainFor(changes, spaceID, changed) {
				continue
			}
			if err := push(); err != nil {
				return err
			}
		}
	}
}

// drainFor consumes the notifications already queued on changes and reports
// whether any of them, or first, concerns spaceID.
func drainFor(changes <-chan string, spaceID, first string) bool {
	hit := first == spaceID
	for {
		select {
		case id, ok := <-changes:
			if !ok {
				return hit
			}
			if id == spaceID {
				hit = true
			}
		default:
			return hit
		}
	}
}

// storeError keeps NotFound and Validation as they are and classifies
// everything else as a persistence failure.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorValidation):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, common.ErrorPersistence, err)
	}
}
