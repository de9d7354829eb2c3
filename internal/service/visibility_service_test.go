package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabtodo/internal/model"
	"collabtodo/internal/service"
)

// TestSharedGroupLifecycle walks the collaboration story end to end:
// Alice shares a group with Bob, Bob gains sight of her task, and the
// group's deletion revokes it without destroying the task.
func TestSharedGroupLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	team := f.createGroup(t, alice, "Team", model.GroupCollaborative)

	groups, err := f.visibility.VisibleGroups(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, groups, "Bob sees nothing before the invite")

	_, err = f.groups.AddCollaborator(ctx, team.ID, alice.ID, "bob@example.com")
	require.NoError(t, err)

	groups, err = f.visibility.VisibleGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Team", groups[0].Name)

	ship := f.createTask(t, alice, service.TaskInput{Name: "Ship v1", GroupID: &team.ID})

	tasks, err := f.visibility.VisibleTasks(ctx, bob.ID, service.SortAdded)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Ship v1", tasks[0].Name)

	require.NoError(t, f.groups.Delete(ctx, team.ID, alice.ID))

	tasks, err = f.visibility.VisibleTasks(ctx, bob.ID, service.SortAdded)
	require.NoError(t, err)
	assert.Empty(t, tasks, "Bob loses sight when the group goes")

	survivor, err := f.tasks.Get(ctx, ship.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.GroupID)
	assert.Equal(t, alice.ID, survivor.OwnerID)
}

func TestVisibleTasksNeverLeakForeignTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	secret := f.createGroup(t, alice, "Secret", model.GroupCollaborative)
	f.createTask(t, alice, service.TaskInput{Name: "Hidden grouped", GroupID: &secret.ID})
	f.createTask(t, alice, service.TaskInput{Name: "Hidden personal"})

	tasks, err := f.visibility.VisibleTasks(ctx, bob.ID, service.SortAdded)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestVisibleTasksSorting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Alice", "alice@example.com")

	mk := func(name, date, clock string, prio model.TaskPriority) {
		t.Helper()
		f.createTask(t, owner, service.TaskInput{Name: name, DueDate: date, DueTime: clock, Priority: prio})
		// SQLite timestamps are not guaranteed sub-millisecond distinct;
		// keep creation order unambiguous.
		time.Sleep(2 * time.Millisecond)
	}

	mk("undated low", "", "", model.PriorityLow)
	mk("tomorrow high", "2026-08-27", "", model.PriorityHigh)
	mk("today evening mid", "2026-08-26", "18:00", model.PriorityMid)
	mk("today morning low", "2026-08-26", "08:00", model.PriorityLow)

	t.Run("added is newest first", func(t *testing.T) {
		tasks, err := f.visibility.VisibleTasks(ctx, owner.ID, service.SortAdded)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"today morning low",
			"today evening mid",
			"tomorrow high",
			"undated low",
		}, taskNames(tasks))
	})

	t.Run("due is soonest first, undated last", func(t *testing.T) {
		tasks, err := f.visibility.VisibleTasks(ctx, owner.ID, service.SortDue)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"today morning low",
			"today evening mid",
			"tomorrow high",
			"undated low",
		}, taskNames(tasks))
	})

	t.Run("priority is high first", func(t *testing.T) {
		tasks, err := f.visibility.VisibleTasks(ctx, owner.ID, service.SortPriority)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"tomorrow high",
			"today evening mid",
			"undated low",
			"today morning low",
		}, taskNames(tasks))
	})
}

// Fakes standing in for the repositories; the resolver only needs the
// two listing methods, so tests can drive it without a database.
type fakeGroupLister struct {
	groups map[uuid.UUID][]model.Group
}

func (f *fakeGroupLister) VisibleTo(_ context.Context, userID uuid.UUID) ([]model.Group, error) {
	return f.groups[userID], nil
}

type fakeTaskLister struct {
	tasks []model.Task
}

func (f *fakeTaskLister) ListVisible(_ context.Context, userID uuid.UUID, groupIDs []uuid.UUID) ([]model.Task, error) {
	allowed := make(map[uuid.UUID]bool, len(groupIDs))
	for _, id := range groupIDs {
		allowed[id] = true
	}
	var out []model.Task
	for _, task := range f.tasks {
		if task.OwnerID == userID || (task.GroupID != nil && allowed[*task.GroupID]) {
			out = append(out, task)
		}
	}
	return out, nil
}

func TestResolverWithFakeRepositories(t *testing.T) {
	ctx := context.Background()
	me := uuid.New()
	them := uuid.New()
	shared := uuid.New()

	resolver := service.NewVisibilityService(
		&fakeGroupLister{groups: map[uuid.UUID][]model.Group{
			me: {{ID: shared, OwnerID: them, Name: "Shared", Kind: model.GroupCollaborative}},
		}},
		&fakeTaskLister{tasks: []model.Task{
			{ID: uuid.New(), OwnerID: me, Name: "mine"},
			{ID: uuid.New(), OwnerID: them, GroupID: &shared, Name: "theirs shared"},
			{ID: uuid.New(), OwnerID: them, Name: "theirs private"},
		}},
	)

	tasks, err := resolver.VisibleTasks(ctx, me, service.SortAdded)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mine", "theirs shared"}, taskNames(tasks))

	seen, err := resolver.CanSeeTask(ctx, &model.Task{OwnerID: them, GroupID: &shared}, me)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = resolver.CanSeeTask(ctx, &model.Task{OwnerID: them}, me)
	require.NoError(t, err)
	assert.False(t, seen)
}
