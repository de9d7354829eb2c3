package model

import (
	"time"

	"github.com/google/uuid"
)

// GroupKind distinguishes private groups from shared ones.
type GroupKind string

const (
	GroupPersonal      GroupKind = "personal"
	GroupCollaborative GroupKind = "collaborative"
)

// Valid reports whether k is one of the known kinds.
func (k GroupKind) Valid() bool {
	return k == GroupPersonal || k == GroupCollaborative
}

// Group is a named collection of tasks with a visibility boundary.
// A personal group has no collaborator rows; a collaborative group
// always carries at least its owner as a collaborator.
type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index" json:"ownerId"`
	Name      string    `json:"name"`
	Kind      GroupKind `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Collaborators []GroupCollaborator `gorm:"foreignKey:GroupID" json:"collaborators,omitempty"`
}

// GroupCollaborator is one membership row. The composite primary key lets
// membership changes run as single add-if-absent / remove-if-present
// statements, so concurrent edits to the same group cannot lose updates.
type GroupCollaborator struct {
	GroupID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"groupId"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
