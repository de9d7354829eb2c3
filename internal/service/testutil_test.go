package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"collabtodo/internal/model"
	"collabtodo/internal/repository"
	"collabtodo/internal/service"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory SQLite database. The named
// shared-cache DSN keeps gorm's pooled connections on the same database
// while isolating tests from each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)
	return db
}

// fixture bundles a full service stack over one test database.
type fixture struct {
	users      *service.UserService
	groups     *service.GroupService
	tasks      *service.TaskService
	visibility *service.VisibilityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	visibility := service.NewVisibilityService(groupRepo, taskRepo)
	return &fixture{
		users:      service.NewUserService(userRepo, groupRepo, taskRepo),
		groups:     service.NewGroupService(groupRepo, userRepo),
		tasks:      service.NewTaskService(taskRepo, visibility),
		visibility: visibility,
	}
}

func (f *fixture) register(t *testing.T, name, email string) *model.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), service.RegisterInput{
		Name:             name,
		Email:            email,
		Password:         "hunter22",
		RecoveryQuestion: "first pet?",
		RecoveryAnswer:   "Rex",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) createGroup(t *testing.T, owner *model.User, name string, kind model.GroupKind) *model.Group {
	t.Helper()
	group, err := f.groups.Create(context.Background(), owner.ID, name, kind)
	require.NoError(t, err)
	return group
}

func (f *fixture) createTask(t *testing.T, owner *model.User, input service.TaskInput) *model.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), owner.ID, input)
	require.NoError(t, err)
	return task
}
