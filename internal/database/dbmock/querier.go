// internal/database/dbmock/querier.go
package dbmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github-showcase/internal/database"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

var _ database.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) UpsertUser(ctx context.Context, arg database.UpsertUserParams) (database.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.User), args.Error(1)
}
func (m *MockQuerier) GetUserByID(ctx context.Context, id int64) (database.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.User), args.Error(1)
}
func (m *MockQuerier) GetUserByLogin(ctx context.Context, githubLogin string) (database.User, error) {
	args := m.Called(ctx, githubLogin)
	return args.Get(0).(database.User), args.Error(1)
}
func (m *MockQuerier) SetGithubShare(ctx context.Context, arg database.SetGithubShareParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) SetInitialed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockQuerier) GetSnapshot(ctx context.Context, login string) (database.GithubSnapshot, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(database.GithubSnapshot), args.Error(1)
}
func (m *MockQuerier) GetUpdateStatus(ctx context.Context, login string) (database.GetUpdateStatusRow, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(database.GetUpdateStatusRow), args.Error(1)
}
func (m *MockQuerier) SetUpdateStatus(ctx context.Context, arg database.SetUpdateStatusParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) SaveSnapshot(ctx context.Context, arg database.SaveSnapshotParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) ListStaleSnapshots(ctx context.Context, arg database.ListStaleSnapshotsParams) ([]string, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockQuerier) CreatePageView(ctx context.Context, arg database.CreatePageViewParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) IncrementSiteStat(ctx context.Context, arg database.IncrementSiteStatParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) CountPageViews(ctx context.Context, arg database.CountPageViewsParams) ([]database.CountPageViewsRow, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]database.CountPageViewsRow), args.Error(1)
}
func (m *MockQuerier) GetResumeByUserID(ctx context.Context, userID int64) (database.Resume, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(database.Resume), args.Error(1)
}
func (m *MockQuerier) GetResumeByHash(ctx context.Context, hash string) (database.Resume, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(database.Resume), args.Error(1)
}
func (m *MockQuerier) UpsertResumeContent(ctx context.Context, arg database.UpsertResumeContentParams) (database.Resume, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Resume), args.Error(1)
}
func (m *MockQuerier) UpdateResumeSettings(ctx context.Context, arg database.UpdateResumeSettingsParams) (database.Resume, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Resume), args.Error(1)
}
