// internal/syncer/syncer.go
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github-showcase/internal/database"
	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/model"
	"github-showcase/internal/stats"
)

const (
	// Number of repositories fetched in parallel within one sync, and number
	// of logins refreshed in parallel by the background cycle.
	concurrency = 5
	// Repositories whose commit activity is collected, by most recent push.
	maxCommitRepos = 30
	// Logins refreshed per background cycle.
	staleBatchSize = 100
	// Days covered by the activity hot-map.
	hotmapSpan = 90
)

// Fetcher is the subset of the GitHub client used by the syncer.
type Fetcher interface {
	GetUser(ctx context.Context, login string) (*model.GitHubUser, error)
	ListRepositories(ctx context.Context, login string) ([]model.Repository, error)
	ListContributed(ctx context.Context, login string) ([]model.Repository, error)
	GetCommitActivity(ctx context.Context, owner, name string) ([]model.WeeklyCommits, error)
	ListLanguages(ctx context.Context, owner, name string) (map[string]int, error)
	ListOrganizations(ctx context.Context, login string) ([]model.Organization, error)
	ListEventTimes(ctx context.Context, login string) ([]time.Time, error)
}

// Options configures a Syncer.
type Options struct {
	AppToken    string
	Interval    time.Duration
	StaleAfter  time.Duration
	SyncTimeout time.Duration
	Concurrency int
	OnSynced    func(ctx context.Context, login string)
	Now         func() time.Time
}

// Syncer orchestrates the fetching and storing of a login's GitHub data and
// owns every update status transition.
type Syncer struct {
	db        database.Querier
	clientFor func(token string) Fetcher
	logger    *slog.Logger
	opts      Options
	group     singleflight.Group

	// base outlives every request; Close cancels it to end running syncs.
	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewSyncer creates a new Syncer instance. clientFor returns a GitHub client
// authenticated with the given token, or with the app token when empty.
func NewSyncer(db database.Querier, clientFor func(token string) Fetcher, logger *slog.Logger, opts Options) *Syncer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = concurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	base, stop := context.WithCancel(context.Background())
	return &Syncer{
		db:        db,
		clientFor: clientFor,
		logger:    logger,
		opts:      opts,
		base:      base,
		stop:      stop,
	}
}

// Close cancels the syncs still running and waits for them to record
// their final status.
func (s *Syncer) Close() {
	s.stop()
	s.wg.Wait()
}

// Start begins the periodic refresh of stale snapshots. It returns when ctx
// is done. A zero interval disables the loop.
func (s *Syncer) Start(ctx context.Context) {
	if s.opts.Interval <= 0 {
		s.logger.Info("Periodic refresh disabled")
		return
	}
	s.logger.Info("Starting syncer", "interval", s.opts.Interval.String(), "concurrency", s.opts.Concurrency)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.runSyncCycle(ctx) // Initial sync

	for {
		select {
		case <-ticker.C:
			s.runSyncCycle(ctx)
		case <-ctx.Done():
			s.logger.Info("Syncer shutting down", "reason", ctx.Err())
			return
		}
	}
}

// runSyncCycle refreshes every snapshot older than StaleAfter concurrently,
// along with logins left mid-update for longer than a sync may run.
func (s *Syncer) runSyncCycle(ctx context.Context) {
	now := s.opts.Now()
	logins, err := s.db.ListStaleSnapshots(ctx, database.ListStaleSnapshotsParams{
		Before:          now.Add(-s.opts.StaleAfter),
		AbandonedBefore: now.Add(-s.syncTimeout()),
		Limit:           staleBatchSize,
	})
	if err != nil {
		s.logger.Error("Failed to list stale snapshots", "error", err)
		return
	}
	if len(logins) == 0 {
		s.logger.Debug("No stale snapshots")
		return
	}

	s.logger.Info("Starting new sync cycle", "logins", len(logins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, login := range logins {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			err := s.SyncUser(gctx, login, "")
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Failed to sync user", "login", login, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Sync cycle finished with an error", "error", err)
	} else {
		s.logger.Info("Sync cycle finished")
	}
}

// Trigger marks login as updating and refreshes it in the background. The
// refresh outlives the caller's request.
func (s *Syncer) Trigger(ctx context.Context, login, token string) error {
	if err := s.setStatus(ctx, login, model.StatusUpdatingRepos); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.SyncUser(context.WithoutCancel(ctx), login, token); err != nil {
			s.logger.Error("Background sync failed", "login", login, "error", err)
		}
	}()
	return nil
}

// SyncUser fetches and stores everything about login. Concurrent calls for
// the same login share one run. The run is bounded by SyncTimeout and by
// Close, never by ctx: a caller that gives up only stops waiting.
func (s *Syncer) SyncUser(ctx context.Context, login, token string) error {
	key := strings.ToLower(login)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		s.wg.Add(1)
		defer s.wg.Done()

		run, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.syncTimeout())
		defer cancel()
		stop := context.AfterFunc(s.base, cancel)
		defer stop()

		return nil, s.syncUser(run, login, token)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) syncTimeout() time.Duration {
	if s.opts.SyncTimeout <= 0 {
		return 10 * time.Minute
	}
	return s.opts.SyncTimeout
}

func (s *Syncer) token(token string) string {
	if token == "" {
		return s.opts.AppToken
	}
	return token
}

func (s *Syncer) syncUser(ctx context.Context, login, token string) (err error) {
	logger := s.logger.With("login", login)
	logger.Info("Syncing user")
	started := s.opts.Now()

	defer func() {
		syncDuration.Observe(time.Since(started).Seconds())
		if err == nil {
			syncTotal.WithLabelValues("success").Inc()
			return
		}
		syncTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, custom_errors.ErrNotFound) {
			// Nothing is stored for logins GitHub does not know.
			return
		}
		// The run may have been cancelled; the failure must still be recorded.
		if serr := s.setStatus(context.WithoutCancel(ctx), login, model.StatusFailed); serr != nil {
			logger.Error("Failed to record failed status", "error", serr)
		}
	}()

	client := s.clientFor(s.token(token))
	user, err := client.GetUser(ctx, login)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}

	if err := s.setStatus(ctx, login, model.StatusUpdatingRepos); err != nil {
		return err
	}

	var (
		repos       []model.Repository
		contributed []model.Repository
		orgs        []model.Organization
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		repos, err = client.ListRepositories(gctx, login)
		return wrap("list repositories", err)
	})
	g.Go(func() (err error) {
		contributed, err = client.ListContributed(gctx, login)
		return wrap("list contributed", err)
	})
	g.Go(func() (err error) {
		orgs, err = client.ListOrganizations(gctx, login)
		return wrap("list organizations", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	own := stats.OwnRepositories(repos)
	stats.SortRepositories(repos)
	stats.SortRepositories(contributed)
	logger.Info("Fetched repositories", "count", len(repos), "own", len(own), "contributed", len(contributed))

	languages, err := s.collectLanguages(ctx, client, own)
	if err != nil {
		return err
	}

	if err := s.setStatus(ctx, login, model.StatusUpdatingCommits); err != nil {
		return err
	}

	commits, err := s.collectCommits(ctx, client, own)
	if err != nil {
		return err
	}
	events, err := client.ListEventTimes(ctx, login)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	hotmap := stats.BuildHotmap(events, s.opts.Now(), hotmapSpan)
	logger.Info("Fetched activity", "repositories", len(commits), "events", len(events))

	params, err := snapshotParams(login, user, repos, contributed, commits, languages, orgs, hotmap)
	if err != nil {
		return err
	}
	if err := s.db.SaveSnapshot(ctx, params); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("Successfully stored snapshot")

	if s.opts.OnSynced != nil {
		s.opts.OnSynced(ctx, login)
	}
	return nil
}

// collectCommits fetches the weekly commit activity of the most recently
// pushed repositories, busiest first.
func (s *Syncer) collectCommits(ctx context.Context, client Fetcher, own []model.Repository) ([]model.CommitRecord, error) {
	repos := recentlyPushed(own, maxCommitRepos)
	records := make([]model.CommitRecord, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			weeks, err := client.GetCommitActivity(gctx, repo.Owner, repo.Name)
			if err != nil {
				return fmt.Errorf("commit activity of %s: %w", repo.Name, err)
			}
			total := 0
			for _, w := range weeks {
				total += w.Total
			}
			records[i] = model.CommitRecord{
				Name:         repo.Name,
				Language:     repo.Language,
				TotalCommits: total,
				Commits:      weeks,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := records[:0]
	for _, r := range records {
		if r.TotalCommits > 0 {
			out = append(out, r)
		}
	}
	stats.SortCommits(out)
	return out, nil
}

func (s *Syncer) collectLanguages(ctx context.Context, client Fetcher, own []model.Repository) ([]model.LanguageStat, error) {
	perRepo := make([]map[string]int, len(own))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, repo := range own {
		g.Go(func() error {
			langs, err := client.ListLanguages(gctx, repo.Owner, repo.Name)
			if err != nil {
				return fmt.Errorf("languages of %s: %w", repo.Name, err)
			}
			perRepo[i] = langs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats.LanguageShares(perRepo), nil
}

func (s *Syncer) setStatus(ctx context.Context, login string, status int) error {
	err := s.db.SetUpdateStatus(ctx, database.SetUpdateStatusParams{
		Login:        login,
		UpdateStatus: int16(status),
	})
	if err != nil {
		return fmt.Errorf("set update status %d: %w", status, err)
	}
	return nil
}

func recentlyPushed(repos []model.Repository, n int) []model.Repository {
	sorted := slices.Clone(repos)
	slices.SortFunc(sorted, func(a, b model.Repository) int {
		return b.PushedAt.Compare(a.PushedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func snapshotParams(
	login string,
	user *model.GitHubUser,
	repos, contributed []model.Repository,
	commits []model.CommitRecord,
	languages []model.LanguageStat,
	orgs []model.Organization,
	hotmap model.Hotmap,
) (database.SaveSnapshotParams, error) {
	p := database.SaveSnapshotParams{Login: login}
	fields := []struct {
		dst *[]byte
		src interface{}
	}{
		{&p.Profile, user},
		{&p.Repositories, nonNil(repos)},
		{&p.Contributed, nonNil(contributed)},
		{&p.Commits, nonNil(commits)},
		{&p.Languages, nonNil(languages)},
		{&p.Organizations, nonNil(orgs)},
		{&p.Hotmap, hotmap},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return p, fmt.Errorf("encode snapshot: %w", err)
		}
		*f.dst = b
	}
	return p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
