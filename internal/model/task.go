package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskPriority orders tasks in the priority sort.
type TaskPriority string

const (
	PriorityLow  TaskPriority = "low"
	PriorityMid  TaskPriority = "mid"
	PriorityHigh TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMid || p == PriorityHigh
}

// rank maps priorities to a sortable weight, highest first.
func (p TaskPriority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMid:
		return 1
	default:
		return 2
	}
}

// Before reports whether p sorts ahead of other in the priority order.
func (p TaskPriority) Before(other TaskPriority) bool {
	return p.rank() < other.rank()
}

// Task is a single unit of work. DueDate and DueTime are opaque calendar
// strings ("2006-01-02", "15:04"); the service never does timezone
// arithmetic on them.
//
// Deletion is an in-place tombstone: DeletedAt and UndoExpiresAt are set
// together by a soft delete and cleared together by an undo, so the task
// keeps its identity across the undo window. gorm's DeletedAt scope hides
// tombstoned rows from every normal query.
type Task struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;index" json:"ownerId"`
	GroupID       *uuid.UUID     `gorm:"type:uuid;index" json:"groupId"`
	Name          string         `json:"name"`
	DueDate       string         `json:"dueDate"`
	DueTime       string         `json:"dueTime"`
	Priority      TaskPriority   `json:"priority"`
	Done          bool           `json:"done"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	UndoExpiresAt *time.Time     `json:"-"`
}

// Tombstoned reports whether the task is soft-deleted and awaiting
// either an undo or the purge sweep.
func (t Task) Tombstoned() bool {
	return t.DeletedAt.Valid
}
