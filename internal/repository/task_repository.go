package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collabtodo/internal/model"
)

// TaskRepository handles CRUD and the tombstone lifecycle for tasks.
// gorm's DeletedAt scope keeps tombstoned rows out of every query that
// does not opt in with Unscoped.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID returns an active task.
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDAny returns the task regardless of tombstone state; undo needs
// to see soft-deleted rows.
func (r *TaskRepository) FindByIDAny(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListVisible returns active tasks owned by the user or grouped into one
// of the given groups, newest first. Callers re-sort for other orders.
func (r *TaskRepository) ListVisible(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) ([]model.Task, error) {
	q := r.db.WithContext(ctx)
	if len(groupIDs) > 0 {
		q = q.Where("owner_id = ? OR group_id IN ?", userID, groupIDs)
	} else {
		q = q.Where("owner_id = ?", userID)
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list visible tasks: %w", err)
	}
	return tasks, nil
}

// Update applies the given column set to one task row in a single
// statement.
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Tombstone soft-deletes an active task, stamping the undo deadline in
// the same statement so a tombstone without an expiry cannot exist.
func (r *TaskRepository) Tombstone(ctx context.Context, id uuid.UUID, now time.Time, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at":      now,
			"undo_expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("tombstone task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Restore reactivates a tombstoned task. The expiry check sits in the
// WHERE clause, so a racing purge or a late undo simply matches no rows.
func (r *TaskRepository) Restore(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Task{}).
		Where("id = ? AND deleted_at IS NOT NULL AND undo_expires_at > ?", id, now).
		Updates(map[string]interface{}{
			"deleted_at":      nil,
			"undo_expires_at": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("restore task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// TombstoneCompleted bulk soft-deletes every done task in the visible
// set (owned-ungrouped plus the given groups).
func (r *TaskRepository) TombstoneCompleted(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID, now time.Time, expiresAt time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("done = ?", true)
	if len(groupIDs) > 0 {
		q = q.Where("owner_id = ? OR group_id IN ?", userID, groupIDs)
	} else {
		q = q.Where("owner_id = ?", userID)
	}

	res := q.Updates(map[string]interface{}{
		"deleted_at":      now,
		"undo_expires_at": expiresAt,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("clear completed tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeExpired permanently destroys tombstones past their undo deadline.
func (r *TaskRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND undo_expires_at <= ?", now).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeOwnedBy hard-deletes every task of one owner, tombstoned or not;
// used by the account-deletion cascade.
func (r *TaskRepository) PurgeOwnedBy(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("owner_id = ?", userID).
		Delete(&model.Task{}).Error
	if err != nil {
		return fmt.Errorf("purge owned tasks: %w", err)
	}
	return nil
}
