// internal/database/querier.go
package database

import (
	"context"
)

type Querier interface {
	// users
	UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	GetUserByLogin(ctx context.Context, githubLogin string) (User, error)
	SetGithubShare(ctx context.Context, arg SetGithubShareParams) error
	SetInitialed(ctx context.Context, id int64) error

	// github snapshots
	GetSnapshot(ctx context.Context, login string) (GithubSnapshot, error)
	GetUpdateStatus(ctx context.Context, login string) (GetUpdateStatusRow, error)
	SetUpdateStatus(ctx context.Context, arg SetUpdateStatusParams) error
	SaveSnapshot(ctx context.Context, arg SaveSnapshotParams) error
	ListStaleSnapshots(ctx context.Context, arg ListStaleSnapshotsParams) ([]string, error)

	// analytics
	CreatePageView(ctx context.Context, arg CreatePageViewParams) error
	IncrementSiteStat(ctx context.Context, arg IncrementSiteStatParams) error
	CountPageViews(ctx context.Context, arg CountPageViewsParams) ([]CountPageViewsRow, error)

	// resumes
	GetResumeByUserID(ctx context.Context, userID int64) (Resume, error)
	GetResumeByHash(ctx context.Context, hash string) (Resume, error)
	UpsertResumeContent(ctx context.Context, arg UpsertResumeContentParams) (Resume, error)
	UpdateResumeSettings(ctx context.Context, arg UpdateResumeSettingsParams) (Resume, error)
}

var _ Querier = (*Queries)(nil)
