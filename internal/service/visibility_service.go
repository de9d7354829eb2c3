package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"collabtodo/internal/model"
)

// SortOrder selects how VisibleTasks arranges its result.
type SortOrder string

const (
	// SortAdded is newest-first by creation time, the default.
	SortAdded SortOrder = "added"
	// SortDue puts the earliest due date first; undated tasks sink to
	// the bottom.
	SortDue SortOrder = "due"
	// SortPriority puts high before mid before low.
	SortPriority SortOrder = "priority"
)

// ParseSortOrder maps a query-string value onto a SortOrder, falling
// back to the default for anything unrecognized.
func ParseSortOrder(raw string) SortOrder {
	switch SortOrder(raw) {
	case SortDue:
		return SortDue
	case SortPriority:
		return SortPriority
	default:
		return SortAdded
	}
}

// GroupLister is the slice of the group registry the resolver needs.
type GroupLister interface {
	VisibleTo(ctx context.Context, userID uuid.UUID) ([]model.Group, error)
}

// TaskLister is the slice of the task store the resolver needs.
type TaskLister interface {
	ListVisible(ctx context.Context, userID uuid.UUID, groupIDs []uuid.UUID) ([]model.Task, error)
}

// VisibilityService is the one place where group membership and task
// ownership compose into "what can this user see". Every listing, bulk
// clear, and task authorization check routes through it; nothing else
// re-derives the predicate.
type VisibilityService struct {
	groups GroupLister
	tasks  TaskLister
}

func NewVisibilityService(groups GroupLister, tasks TaskLister) *VisibilityService {
	return &VisibilityService{groups: groups, tasks: tasks}
}

// VisibleGroups returns the groups the user owns or collaborates in.
func (s *VisibilityService) VisibleGroups(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	return s.groups.VisibleTo(ctx, userID)
}

// VisibleGroupIDs is VisibleGroups reduced to ids, for query building.
func (s *VisibilityService) VisibleGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	groups, err := s.VisibleGroups(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

// VisibleTasks returns every active task the user owns or that sits in
// a group they can see, in the requested order.
func (s *VisibilityService) VisibleTasks(ctx context.Context, userID uuid.UUID, order SortOrder) ([]model.Task, error) {
	groupIDs, err := s.VisibleGroupIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListVisible(ctx, userID, groupIDs)
	if err != nil {
		return nil, err
	}
	sortTasks(tasks, order)
	return tasks, nil
}

// CanSeeTask applies the visibility predicate to one task.
func (s *VisibilityService) CanSeeTask(ctx context.Context, task *model.Task, userID uuid.UUID) (bool, error) {
	if task.OwnerID == userID {
		return true, nil
	}
	if task.GroupID == nil {
		return false, nil
	}
	groupIDs, err := s.VisibleGroupIDs(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("resolve visible groups: %w", err)
	}
	for _, id := range groupIDs {
		if id == *task.GroupID {
			return true, nil
		}
	}
	return false, nil
}

// sortTasks orders tasks in place. Incoming tasks arrive newest-first
// from the store; the due and priority orders re-sort stably with
// creation time (then id) breaking ties.
func sortTasks(tasks []model.Task, order SortOrder) {
	switch order {
	case SortDue:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i], tasks[j]
			switch {
			case a.DueDate == "" && b.DueDate == "":
				return createdBefore(a, b)
			case a.DueDate == "":
				return false
			case b.DueDate == "":
				return true
			case a.DueDate != b.DueDate:
				return a.DueDate < b.DueDate
			case a.DueTime != b.DueTime:
				// Timed entries precede untimed ones on the same day.
				if a.DueTime == "" || b.DueTime == "" {
					return b.DueTime == ""
				}
				return a.DueTime < b.DueTime
			default:
				return createdBefore(a, b)
			}
		})
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i], tasks[j]
			if a.Priority != b.Priority {
				return a.Priority.Before(b.Priority)
			}
			return createdBefore(a, b)
		})
	default:
		// SortAdded: the store already returns newest first.
	}
}

func createdBefore(a, b model.Task) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
