package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collabtodo/internal/model"
	"collabtodo/internal/repository"
)

// GroupUpdate is a partial group change; nil fields stay untouched.
type GroupUpdate struct {
	Name *string
	Kind *model.GroupKind
}

// GroupService is the group registry: it owns membership and enforces
// owner-only mutation. Anyone who cannot see a group gets ErrNotFound
// rather than ErrForbidden, so group existence never leaks.
type GroupService struct {
	groupRepo *repository.GroupRepository
	userRepo  *repository.UserRepository
}

func NewGroupService(groupRepo *repository.GroupRepository, userRepo *repository.UserRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo, userRepo: userRepo}
}

// Create makes the caller the owner. Collaborative groups start with the
// owner in the collaborator set; personal groups start empty.
func (s *GroupService) Create(ctx context.Context, ownerID uuid.UUID, name string, kind model.GroupKind) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidState)
	}
	if kind == "" {
		kind = model.GroupPersonal
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown group kind %q", ErrInvalidState, kind)
	}

	group := model.Group{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Kind:    kind,
	}
	if err := s.groupRepo.Create(ctx, &group); err != nil {
		return nil, err
	}
	return s.get(ctx, group.ID)
}

// Get returns a group the caller can see.
func (s *GroupService) Get(ctx context.Context, groupID, actingUserID uuid.UUID) (*model.Group, error) {
	group, err := s.get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !s.canSee(group, actingUserID) {
		return nil, ErrNotFound
	}
	return group, nil
}

// Update renames or retypes a group; owner only. Retyping keeps the
// collaborator-set invariant: collaborative to personal clears the set,
// personal to collaborative seeds the owner.
func (s *GroupService) Update(ctx context.Context, groupID, actingUserID uuid.UUID, update GroupUpdate) (*model.Group, error) {
	group, err := s.Get(ctx, groupID, actingUserID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != actingUserID {
		return nil, fmt.Errorf("only the owner may modify a group: %w", ErrForbidden)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: group name cannot be empty", ErrInvalidState)
	}
	if update.Kind != nil && !update.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown group kind %q", ErrInvalidState, *update.Kind)
	}

	if err := s.groupRepo.Update(ctx, group, update.Name, update.Kind); err != nil {
		return nil, err
	}
	return s.get(ctx, groupID)
}

// Delete removes a group, owner only. Its tasks survive and end up
// ungrouped; the repository orders the two steps so a crash cannot
// orphan them.
func (s *GroupService) Delete(ctx context.Context, groupID, actingUserID uuid.UUID) error {
	group, err := s.Get(ctx, groupID, actingUserID)
	if err != nil {
		return err
	}
	if group.OwnerID != actingUserID {
		return fmt.Errorf("only the owner may delete a group: %w", ErrForbidden)
	}
	return s.groupRepo.Delete(ctx, groupID)
}

// AddCollaborator invites the user registered under targetEmail. Owner
// only; collaborative groups only. Adding someone who is already in the
// set is a no-op, so retries and double-clicks cannot grow it.
func (s *GroupService) AddCollaborator(ctx context.Context, groupID, actingUserID uuid.UUID, targetEmail string) (*model.Group, error) {
	group, err := s.Get(ctx, groupID, actingUserID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != actingUserID {
		return nil, fmt.Errorf("only the owner may invite collaborators: %w", ErrForbidden)
	}
	if group.Kind != model.GroupCollaborative {
		return nil, fmt.Errorf("personal groups cannot have collaborators: %w", ErrInvalidState)
	}

	target, err := s.userRepo.FindByEmail(ctx, targetEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no user with that email: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find collaborator: %w", err)
	}
	if target.ID == group.OwnerID {
		return nil, fmt.Errorf("the owner is already a member: %w", ErrConflict)
	}

	if _, err := s.groupRepo.AddCollaborator(ctx, groupID, target.ID); err != nil {
		return nil, err
	}
	return s.get(ctx, groupID)
}

// RemoveCollaborator drops a member. The owner may remove anyone; a
// collaborator may only remove themselves (leave the group).
func (s *GroupService) RemoveCollaborator(ctx context.Context, groupID, actingUserID, targetUserID uuid.UUID) (*model.Group, error) {
	group, err := s.Get(ctx, groupID, actingUserID)
	if err != nil {
		return nil, err
	}
	if actingUserID != group.OwnerID && actingUserID != targetUserID {
		return nil, fmt.Errorf("collaborators may only remove themselves: %w", ErrForbidden)
	}
	if targetUserID == group.OwnerID {
		return nil, fmt.Errorf("the owner cannot leave their own group: %w", ErrInvalidState)
	}

	removed, err := s.groupRepo.RemoveCollaborator(ctx, groupID, targetUserID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("not a collaborator: %w", ErrNotFound)
	}
	return s.get(ctx, groupID)
}

// VisibleTo lists the groups the user owns or collaborates in.
func (s *GroupService) VisibleTo(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	return s.groupRepo.VisibleTo(ctx, userID)
}

func (s *GroupService) get(ctx context.Context, groupID uuid.UUID) (*model.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find group: %w", err)
	}
	return group, nil
}

func (s *GroupService) canSee(group *model.Group, userID uuid.UUID) bool {
	if group.OwnerID == userID {
		return true
	}
	for _, c := range group.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}
