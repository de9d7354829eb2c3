package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"collabtodo/internal/model"
)

// GroupRepository manages groups and their collaborator sets.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts the group and, for collaborative groups, seeds the
// collaborator set with the owner in the same transaction.
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		if group.Kind == model.GroupCollaborative {
			seed := model.GroupCollaborator{GroupID: group.ID, UserID: group.OwnerID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Preload("Collaborators").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// VisibleTo returns every group the user owns or collaborates in.
func (r *GroupRepository) VisibleTo(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	member := r.db.Model(&model.GroupCollaborator{}).
		Select("group_id").
		Where("user_id = ?", userID)

	var groups []model.Group
	err := r.db.WithContext(ctx).
		Preload("Collaborators").
		Where("owner_id = ? OR id IN (?)", userID, member).
		Order("created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("list visible groups: %w", err)
	}
	return groups, nil
}

func (r *GroupRepository) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("list owned groups: %w", err)
	}
	return groups, nil
}

// Update renames and/or retypes a group. A kind change maintains the
// collaborator-set invariant in the same transaction: collaborative to
// personal clears the set, personal to collaborative seeds the owner.
func (r *GroupRepository) Update(ctx context.Context, group *model.Group, name *string, kind *model.GroupKind) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{}
		if name != nil {
			fields["name"] = *name
		}
		if kind != nil && *kind != group.Kind {
			fields["kind"] = *kind
			switch *kind {
			case model.GroupPersonal:
				if err := tx.Where("group_id = ?", group.ID).
					Delete(&model.GroupCollaborator{}).Error; err != nil {
					return err
				}
			case model.GroupCollaborative:
				seed := model.GroupCollaborator{GroupID: group.ID, UserID: group.OwnerID}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
					return err
				}
			}
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Model(&model.Group{}).Where("id = ?", group.ID).Updates(fields).Error
	})
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// AddCollaborator is an atomic add-if-absent; it reports whether a new
// row was actually inserted.
func (r *GroupRepository) AddCollaborator(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	row := model.GroupCollaborator{GroupID: groupID, UserID: userID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("add collaborator: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveCollaborator is an atomic remove-if-present.
func (r *GroupRepository) RemoveCollaborator(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupCollaborator{})
	if res.Error != nil {
		return false, fmt.Errorf("remove collaborator: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveUserEverywhere pulls the user from every collaborator set; used
// by the account-deletion cascade.
func (r *GroupRepository) RemoveUserEverywhere(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.GroupCollaborator{}).Error
	if err != nil {
		return fmt.Errorf("remove user from collaborator sets: %w", err)
	}
	return nil
}

// Delete ungroups every task referencing the group before removing the
// group itself. The order is load-bearing: a crash in between leaves
// tasks correctly ungrouped instead of pointing at a missing group.
// Tombstoned tasks are ungrouped too, so a later undo cannot resurrect
// a dangling reference.
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&model.Task{}).
			Where("group_id = ?", id).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).
			Delete(&model.GroupCollaborator{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Group{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
