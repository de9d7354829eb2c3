package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collabtodo/internal/model"
	"collabtodo/internal/repository"
)

// UndoWindow is how long a soft-deleted task stays recoverable.
const UndoWindow = 10 * time.Minute

// TaskInput carries everything needed to create a task.
type TaskInput struct {
	Name     string
	DueDate  string
	DueTime  string
	Priority model.TaskPriority
	GroupID  *uuid.UUID
}

// TaskUpdate is a partial task change. Nil fields stay untouched; the
// group reference only moves when SetGroup is true, because "the caller
// did not send the field" and "the caller sent null" must behave
// differently.
type TaskUpdate struct {
	Name     *string
	DueDate  *string
	DueTime  *string
	Priority *model.TaskPriority
	Done     *bool
	SetGroup bool
	GroupID  *uuid.UUID
}

// TaskService owns the task lifecycle: Active -> Tombstoned -> Purged,
// with Tombstoned -> Active via undo inside the window. Group members
// see each other's tasks but only the owner mutates them; a caller who
// cannot see a task gets ErrNotFound, one who can see but not touch it
// gets ErrForbidden.
//
// Mutating operations take the current time explicitly so the window
// logic tests without sleeping.
type TaskService struct {
	taskRepo   *repository.TaskRepository
	visibility *VisibilityService
}

func NewTaskService(taskRepo *repository.TaskRepository, visibility *VisibilityService) *TaskService {
	return &TaskService{taskRepo: taskRepo, visibility: visibility}
}

// Create makes a new active task owned by ownerID. Priority defaults to
// low and a supplied group must be visible to the owner.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input TaskInput) (*model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: task name is required", ErrInvalidState)
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityLow
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidState, priority)
	}
	if input.GroupID != nil {
		if err := s.requireVisibleGroup(ctx, ownerID, *input.GroupID); err != nil {
			return nil, err
		}
	}

	task := model.Task{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		GroupID:  input.GroupID,
		Name:     name,
		DueDate:  strings.TrimSpace(input.DueDate),
		DueTime:  strings.TrimSpace(input.DueTime),
		Priority: priority,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Get returns an active task the caller can see.
func (s *TaskService) Get(ctx context.Context, taskID, actingUserID uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	visible, err := s.visibility.CanSeeTask(ctx, task, actingUserID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrNotFound
	}
	return task, nil
}

// Update applies a partial change to a task; owner only. Omitted fields
// keep their values — in particular an omitted group never nulls out an
// existing one.
func (s *TaskService) Update(ctx context.Context, taskID, actingUserID uuid.UUID, update TaskUpdate) (*model.Task, error) {
	task, err := s.Get(ctx, taskID, actingUserID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != actingUserID {
		return nil, fmt.Errorf("only the task owner may modify it: %w", ErrForbidden)
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: task name cannot be empty", ErrInvalidState)
		}
		fields["name"] = name
	}
	if update.DueDate != nil {
		fields["due_date"] = strings.TrimSpace(*update.DueDate)
	}
	if update.DueTime != nil {
		fields["due_time"] = strings.TrimSpace(*update.DueTime)
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidState, *update.Priority)
		}
		fields["priority"] = *update.Priority
	}
	if update.Done != nil {
		fields["done"] = *update.Done
	}
	if update.SetGroup {
		if update.GroupID != nil {
			if err := s.requireVisibleGroup(ctx, actingUserID, *update.GroupID); err != nil {
				return nil, err
			}
		}
		fields["group_id"] = update.GroupID
	}

	if err := s.taskRepo.Update(ctx, taskID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, taskID, actingUserID)
}

// SoftDelete tombstones an active task; owner only. The task drops out
// of every visibility query immediately and stays recoverable until
// now + UndoWindow.
func (s *TaskService) SoftDelete(ctx context.Context, taskID, actingUserID uuid.UUID, now time.Time) (time.Time, error) {
	task, err := s.Get(ctx, taskID, actingUserID)
	if err != nil {
		return time.Time{}, err
	}
	if task.OwnerID != actingUserID {
		return time.Time{}, fmt.Errorf("only the task owner may delete it: %w", ErrForbidden)
	}

	expiresAt := now.Add(UndoWindow)
	done, err := s.taskRepo.Tombstone(ctx, taskID, now, expiresAt)
	if err != nil {
		return time.Time{}, err
	}
	if !done {
		// Someone tombstoned it between our read and the update.
		return time.Time{}, ErrNotFound
	}
	return expiresAt, nil
}

// Undo restores a tombstoned task, identical field values included,
// strictly before its expiry. Past the window it fails with ErrExpired;
// the boundary reports that as not found.
func (s *TaskService) Undo(ctx context.Context, taskID, actingUserID uuid.UUID, now time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByIDAny(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	if task.OwnerID != actingUserID {
		return nil, ErrNotFound
	}
	if !task.Tombstoned() {
		return nil, fmt.Errorf("task is not deleted: %w", ErrInvalidState)
	}
	if task.UndoExpiresAt == nil || !now.Before(*task.UndoExpiresAt) {
		return nil, ErrExpired
	}

	restored, err := s.taskRepo.Restore(ctx, taskID, now)
	if err != nil {
		return nil, err
	}
	if !restored {
		// The purge sweep won the race.
		return nil, ErrExpired
	}
	return s.Get(ctx, taskID, actingUserID)
}

// ClearCompleted soft-deletes every done task visible to the user —
// shared-group tasks owned by others included, matching "bulk action on
// what I see". Each one gets the usual undo window.
func (s *TaskService) ClearCompleted(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	groupIDs, err := s.visibility.VisibleGroupIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.taskRepo.TombstoneCompleted(ctx, userID, groupIDs, now, now.Add(UndoWindow))
}

// PurgeExpired permanently destroys tombstones past their deadline; the
// scheduler runs it periodically.
func (s *TaskService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.taskRepo.PurgeExpired(ctx, now)
}

// requireVisibleGroup rejects group references the user cannot see with
// ErrNotFound, covering both absent and merely invisible groups.
func (s *TaskService) requireVisibleGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	groupIDs, err := s.visibility.VisibleGroupIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range groupIDs {
		if id == groupID {
			return nil
		}
	}
	return fmt.Errorf("no such group: %w", ErrNotFound)
}
