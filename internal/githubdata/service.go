// internal/githubdata/service.go
package githubdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github-showcase/internal/database"
	"github-showcase/internal/model"
)

// Syncer refreshes the stored snapshot of a login.
type Syncer interface {
	SyncUser(ctx context.Context, login, token string) error
	Trigger(ctx context.Context, login, token string) error
}

// Client is the part of the GitHub API that is always queried live.
type Client interface {
	GetUser(ctx context.Context, login string) (*model.GitHubUser, error)
	Zen(ctx context.Context) (string, error)
	Octocat(ctx context.Context) (string, error)
}

// Service serves a login's GitHub data from its stored snapshot. A login
// that was never synced is synced before its first section is returned.
type Service struct {
	db           database.Querier
	syncer       Syncer
	clientFor    func(token string) Client
	abandonAfter time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a Service. clientFor returns a client authenticated
// with the given token, or with the app token when it is empty. An update
// that reported no progress for abandonAfter is considered failed.
func NewService(db database.Querier, syncer Syncer, clientFor func(token string) Client, abandonAfter time.Duration, logger *slog.Logger) *Service {
	return &Service{
		db:           db,
		syncer:       syncer,
		clientFor:    clientFor,
		abandonAfter: abandonAfter,
		logger:       logger,
		now:          time.Now,
	}
}

// User returns the GitHub profile of login. Unknown logins yield
// errors.ErrNotFound.
func (s *Service) User(ctx context.Context, login, token string) (*model.GitHubUser, error) {
	snap, err := s.db.GetSnapshot(ctx, login)
	switch {
	case err == nil && snap.Synced:
		var u model.GitHubUser
		if err := json.Unmarshal(snap.Profile, &u); err != nil {
			return nil, fmt.Errorf("decode profile of %s: %w", login, err)
		}
		return &u, nil
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get snapshot of %s: %w", login, err)
	}
	return s.clientFor(token).GetUser(ctx, login)
}

// Viewer returns the profile of the account token belongs to.
func (s *Service) Viewer(ctx context.Context, token string) (*model.GitHubUser, error) {
	return s.clientFor(token).GetUser(ctx, "")
}

func (s *Service) Repositories(ctx context.Context, login, token string) ([]model.Repository, error) {
	return section[[]model.Repository](ctx, s, login, token, func(g database.GithubSnapshot) []byte { return g.Repositories })
}

func (s *Service) Contributed(ctx context.Context, login, token string) ([]model.Repository, error) {
	return section[[]model.Repository](ctx, s, login, token, func(g database.GithubSnapshot) []byte { return g.Contributed })
}

func (s *Service) Commits(ctx context.Context, login, token string) ([]model.CommitRecord, error) {
	return section[[]model.CommitRecord](ctx, s, login, token, func(g database.GithubSnapshot) []byte { return g.Commits })
}

func (s *Service) Languages(ctx context.Context, login, token string) ([]model.LanguageStat, error) {
	return section[[]model.LanguageStat](ctx, s, login, token, func(g database.GithubSnapshot) []byte { return g.Languages })
}

func (s *Service) Organizations(ctx context.Context, login, token string) ([]model.Organization, error) {
	return section[[]model.Organization](ctx, s, login, token, func(g database.GithubSnapshot) []byte { return g.Organizations })
}

func (s *Service) Hotmap(ctx context.Context, login, token string) (model.Hotmap, error) {
	return section[model.Hotmap](ctx, s, login, token, func(g database.GithubSnapshot) []byte { return g.Hotmap })
}

// UpdateStatus reports the refresh state of login. A login without any
// stored state is StatusUnknown. An update left behind by a stopped
// process is reported as StatusFailed so that it can be requested again.
func (s *Service) UpdateStatus(ctx context.Context, login string) (model.UpdateStatus, error) {
	row, err := s.db.GetUpdateStatus(ctx, login)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UpdateStatus{Status: model.StatusUnknown}, nil
	}
	if err != nil {
		return model.UpdateStatus{}, fmt.Errorf("get update status of %s: %w", login, err)
	}
	st := model.UpdateStatus{Status: int(row.UpdateStatus)}
	inProgress := st.Status == model.StatusUpdatingRepos || st.Status == model.StatusUpdatingCommits
	if inProgress && s.abandonAfter > 0 && s.now().Sub(row.UpdatedAt) > s.abandonAfter {
		s.logger.Warn("Update abandoned", "login", login, "status", st.Status, "updated_at", row.UpdatedAt)
		st.Status = model.StatusFailed
	}
	if row.LastUpdateTime.Valid {
		st.LastUpdateTime = row.LastUpdateTime.Time
	}
	return st, nil
}

// Trigger starts a background refresh of login.
func (s *Service) Trigger(ctx context.Context, login, token string) error {
	return s.syncer.Trigger(ctx, login, token)
}

func (s *Service) Zen(ctx context.Context, token string) (string, error) {
	return s.clientFor(token).Zen(ctx)
}

func (s *Service) Octocat(ctx context.Context, token string) (string, error) {
	return s.clientFor(token).Octocat(ctx)
}

// snapshot returns the stored snapshot of login, syncing it first when
// nothing was stored yet.
func (s *Service) snapshot(ctx context.Context, login, token string) (database.GithubSnapshot, error) {
	snap, err := s.db.GetSnapshot(ctx, login)
	if err == nil && snap.Synced {
		return snap, nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return snap, fmt.Errorf("get snapshot of %s: %w", login, err)
	}

	s.logger.Info("No snapshot stored, syncing", "login", login)
	if err := s.syncer.SyncUser(ctx, login, token); err != nil {
		return snap, err
	}
	snap, err = s.db.GetSnapshot(ctx, login)
	if err != nil {
		return snap, fmt.Errorf("get snapshot of %s: %w", login, err)
	}
	return snap, nil
}

func section[T any](ctx context.Context, s *Service, login, token string, pick func(database.GithubSnapshot) []byte) (T, error) {
	var out T
	snap, err := s.snapshot(ctx, login, token)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(pick(snap), &out); err != nil {
		return out, fmt.Errorf("decode snapshot of %s: %w", login, err)
	}
	return out, nil
}
