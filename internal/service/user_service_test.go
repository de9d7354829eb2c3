package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabtodo/internal/model"
	"collabtodo/internal/service"
)

func TestRegisterNormalizesAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, service.RegisterInput{
		Name:     "Alice",
		Email:    "  Alice@Example.COM ",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = f.users.Register(ctx, service.RegisterInput{
		Name:     "Other Alice",
		Email:    "ALICE@example.com",
		Password: "different",
	})
	assert.ErrorIs(t, err, service.ErrConflict, "email uniqueness is case-insensitive")
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Alice", "alice@example.com")

	user, err := f.users.Authenticate(ctx, "Alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = f.users.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.users.Authenticate(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, service.ErrForbidden, "unknown email answers like a bad password")
}

func TestPasswordRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Alice", "alice@example.com")

	question, err := f.users.RecoveryQuestion(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "first pet?", question)

	err = f.users.ResetPassword(ctx, "alice@example.com", "wrong answer", "newpass9")
	assert.ErrorIs(t, err, service.ErrForbidden)

	// Answers compare case-insensitively.
	err = f.users.ResetPassword(ctx, "alice@example.com", "rex", "newpass9")
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "alice@example.com", "newpass9")
	assert.NoError(t, err)
	_, err = f.users.Authenticate(ctx, "alice@example.com", "hunter22")
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Alice Cooper", "alice@example.com")
	f.register(t, "Bob Marley", "bob@beatmail.com")
	f.register(t, "Alina Smith", "asmith@example.com")

	t.Run("matches name or email substring", func(t *testing.T) {
		results, err := f.users.Search(ctx, "ali", 0)
		require.NoError(t, err)
		require.Len(t, results, 2)
	})

	t.Run("case-insensitive", func(t *testing.T) {
		results, err := f.users.Search(ctx, "BEATMAIL", 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Bob Marley", results[0].Name)
	})

	t.Run("short queries return nothing", func(t *testing.T) {
		results, err := f.users.Search(ctx, "a", 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("respects the limit", func(t *testing.T) {
		results, err := f.users.Search(ctx, "example.com", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	f.register(t, "Bob", "bob@example.com")

	t.Run("partial update touches only supplied fields", func(t *testing.T) {
		name := "Alice B."
		updated, err := f.users.UpdateProfile(ctx, alice.ID, service.ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Alice B.", updated.Name)
		assert.Equal(t, "alice@example.com", updated.Email)
	})

	t.Run("email collision conflicts", func(t *testing.T) {
		email := "BOB@example.com"
		_, err := f.users.UpdateProfile(ctx, alice.ID, service.ProfileUpdate{Email: &email})
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("password change takes effect", func(t *testing.T) {
		password := "s3cret-new"
		_, err := f.users.UpdateProfile(ctx, alice.ID, service.ProfileUpdate{Password: &password})
		require.NoError(t, err)
		_, err = f.users.Authenticate(ctx, "alice@example.com", "s3cret-new")
		assert.NoError(t, err)
	})
}

func TestDeleteAccountCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	aliceGroup := f.createGroup(t, alice, "Alice Team", model.GroupCollaborative)
	_, err := f.groups.AddCollaborator(ctx, aliceGroup.ID, alice.ID, "bob@example.com")
	require.NoError(t, err)

	bobGroup := f.createGroup(t, bob, "Bob Team", model.GroupCollaborative)
	_, err = f.groups.AddCollaborator(ctx, bobGroup.ID, bob.ID, "alice@example.com")
	require.NoError(t, err)

	f.createTask(t, alice, service.TaskInput{Name: "Alice task", GroupID: &aliceGroup.ID})
	bobShared := f.createTask(t, bob, service.TaskInput{Name: "Bob shared", GroupID: &aliceGroup.ID})

	require.NoError(t, f.users.DeleteAccount(ctx, alice.ID))

	// Alice's identity, tasks and groups are gone.
	_, err = f.users.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.groups.Get(ctx, aliceGroup.ID, bob.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// Bob's task survives, merely ungrouped; Bob's own group no longer
	// lists Alice.
	survivor, err := f.tasks.Get(ctx, bobShared.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.GroupID)

	group, err := f.groups.Get(ctx, bobGroup.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, group.Collaborators, 1)
	assert.Equal(t, bob.ID, group.Collaborators[0].UserID)
}
