package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collabtodo/internal/auth"
	"collabtodo/internal/model"
	"collabtodo/internal/repository"
)

// Queries shorter than this return nothing instead of scanning the table.
const minSearchLength = 2

// DefaultSearchLimit caps user search results when the caller does not
// ask for a count.
const DefaultSearchLimit = 5

// RegisterInput carries everything needed to open an account. Password
// and recovery answer arrive in the clear and are hashed here.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	RecoveryQuestion string
	RecoveryAnswer   string
}

// ProfileUpdate is a partial profile change; nil fields stay untouched.
type ProfileUpdate struct {
	Name             *string
	Email            *string
	Password         *string
	RecoveryQuestion *string
	RecoveryAnswer   *string
}

// UserService is the identity directory: registration, login, recovery,
// search and the account-deletion cascade.
type UserService struct {
	userRepo  *repository.UserRepository
	groupRepo *repository.GroupRepository
	taskRepo  *repository.TaskRepository
}

func NewUserService(userRepo *repository.UserRepository, groupRepo *repository.GroupRepository, taskRepo *repository.TaskRepository) *UserService {
	return &UserService{userRepo: userRepo, groupRepo: groupRepo, taskRepo: taskRepo}
}

// Register creates a new account. The email is normalized to lowercase;
// a duplicate registration fails with ErrConflict.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidState)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := auth.HashSecret(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	answerHash := ""
	if input.RecoveryAnswer != "" {
		answerHash, err = auth.HashSecret(normalizeAnswer(input.RecoveryAnswer))
		if err != nil {
			return nil, fmt.Errorf("hash recovery answer: %w", err)
		}
	}

	user := model.User{
		ID:                 uuid.New(),
		Name:               name,
		Email:              email,
		PasswordHash:       passwordHash,
		RecoveryQuestion:   strings.TrimSpace(input.RecoveryQuestion),
		RecoveryAnswerHash: answerHash,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks email/password for login and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("unknown email or bad password: %w", ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckSecret(user.PasswordHash, password) {
		return nil, fmt.Errorf("unknown email or bad password: %w", ErrForbidden)
	}
	return user, nil
}

// RecoveryQuestion returns the security question registered for the email.
func (s *UserService) RecoveryQuestion(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if user.RecoveryQuestion == "" {
		return "", fmt.Errorf("no recovery question on file: %w", ErrInvalidState)
	}
	return user.RecoveryQuestion, nil
}

// ResetPassword sets a new password when the recovery answer matches.
func (s *UserService) ResetPassword(ctx context.Context, email, answer, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidState)
	}
	if user.RecoveryAnswerHash == "" || !auth.CheckSecret(user.RecoveryAnswerHash, normalizeAnswer(answer)) {
		return fmt.Errorf("recovery answer mismatch: %w", ErrForbidden)
	}

	hash, err := auth.HashSecret(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.Update(ctx, user.ID, map[string]interface{}{"password_hash": hash})
}

// Get returns one account by id.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// FindByEmail looks up an account by its (case-insensitive) email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Search matches name or email substrings. Trivially short queries come
// back empty rather than matching the whole directory, and results never
// carry credential material.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]model.PublicUser, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return []model.PublicUser{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	users, err := s.userRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		results = append(results, u.Public())
	}
	return results, nil
}

// UpdateProfile applies any subset of profile fields. A changed email is
// re-checked for collisions with other accounts.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		fields["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidState)
		}
		if email != user.Email {
			if other, err := s.userRepo.FindByEmail(ctx, email); err == nil && other.ID != userID {
				return nil, fmt.Errorf("email already registered: %w", ErrConflict)
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("check email: %w", err)
			}
			fields["email"] = email
		}
	}
	if update.Password != nil && *update.Password != "" {
		hash, err := auth.HashSecret(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password_hash"] = hash
	}
	if update.RecoveryQuestion != nil {
		fields["recovery_question"] = strings.TrimSpace(*update.RecoveryQuestion)
	}
	if update.RecoveryAnswer != nil && *update.RecoveryAnswer != "" {
		hash, err := auth.HashSecret(normalizeAnswer(*update.RecoveryAnswer))
		if err != nil {
			return nil, fmt.Errorf("hash recovery answer: %w", err)
		}
		fields["recovery_answer_hash"] = hash
	}

	if err := s.userRepo.Update(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

// DeleteAccount removes the user and everything hanging off them.
// Dependents go first so nothing dangles past the identity record:
// owned tasks, then owned groups (which ungroups the tasks of others),
// then membership rows, then the user.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	if err := s.taskRepo.PurgeOwnedBy(ctx, userID); err != nil {
		return err
	}

	owned, err := s.groupRepo.ListOwnedBy(ctx, userID)
	if err != nil {
		return err
	}
	for _, g := range owned {
		if err := s.groupRepo.Delete(ctx, g.ID); err != nil {
			return err
		}
	}

	if err := s.groupRepo.RemoveUserEverywhere(ctx, userID); err != nil {
		return err
	}

	return s.userRepo.Delete(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Recovery answers are compared case-insensitively; "Rex" and "rex"
// should both unlock the account.
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
