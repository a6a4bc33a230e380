// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/model"
)

const (
	// Attempts per API call, the first one included.
	maxRetries = 3
	// Longer rate-limit waits fail fast instead of blocking a request.
	maxRateLimitWait = 2 * time.Minute

	perPage             = 100
	maxContributedRepos = 30
	maxEventPages       = 3
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh         *github.Client
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client; an
// empty token yields an anonymous client.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		gh:         newGitHub(token),
		logger:     logger,
		newBackOff: defaultBackOff,
	}
}

func newGitHub(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return github.NewClient(oauth2.NewClient(context.Background(), ts))
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

// WithToken returns a client authenticated with token that shares the
// receiver's endpoint and retry settings. An empty token returns c.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}
	gh := newGitHub(token)
	gh.BaseURL = c.gh.BaseURL
	gh.UploadURL = c.gh.UploadURL
	return &Client{gh: gh, logger: c.logger, newBackOff: c.newBackOff}
}

// do runs op with retries on server errors, pending statistics and rate limits.
func (c *Client) do(ctx context.Context, name string, op func() (*github.Response, error)) error {
	operation := func() error {
		resp, err := op()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			wait := time.Until(rateErr.Rate.Reset.Time)
			if wait > maxRateLimitWait {
				return backoff.Permanent(err)
			}
			c.logger.Warn("GitHub rate limit reached, waiting for reset", "op", name, "wait", wait.String())
			if werr := sleep(ctx, wait); werr != nil {
				return backoff.Permanent(werr)
			}
			return err
		}

		var acceptedErr *github.AcceptedError
		if errors.As(err, &acceptedErr) {
			c.logger.Debug("GitHub statistics are being computed", "op", name)
			return err
		}

		if resp == nil || resp.StatusCode >= http.StatusInternalServerError {
			c.logger.Debug("Retrying GitHub request", "op", name, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxRetries-1), ctx)
	return backoff.Retry(operation, b)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

// GetUser fetches a user's public profile. An empty login fetches the
// authenticated user.
func (c *Client) GetUser(ctx context.Context, login string) (*model.GitHubUser, error) {
	var user *github.User
	err := c.do(ctx, "users.get", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		user, resp, err = c.gh.Users.Get(ctx, login)
		return resp, err
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("github user %q: %w", login, custom_errors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toInternalUser(user), nil
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	var repo *github.Repository
	err := c.do(ctx, "repositories.get", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		repo, resp, err = c.gh.Repositories.Get(ctx, owner, name)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	r := toInternalRepository(repo)
	return &r, nil
}

// ListRepositories fetches every repository owned by login.
// It handles API pagination transparently.
func (c *Client) ListRepositories(ctx context.Context, login string) ([]model.Repository, error) {
	var all []model.Repository

	opts := &github.RepositoryListByUserOptions{
		Type: "owner",
		Sort: "pushed",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	for {
		c.logger.Debug("Fetching repositories page", "login", login, "page", opts.Page)

		var (
			repos []*github.Repository
			resp  *github.Response
		)
		err := c.do(ctx, "repositories.list", func() (*github.Response, error) {
			var err error
			repos, resp, err = c.gh.Repositories.ListByUser(ctx, login, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, repo := range repos {
			all = append(all, toInternalRepository(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// ListContributed fetches repositories owned by others that received merged
// pull requests from login.
func (c *Client) ListContributed(ctx context.Context, login string) ([]model.Repository, error) {
	query := fmt.Sprintf("type:pr author:%s is:merged -user:%s", login, login)
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: perPage}}

	var result *github.IssuesSearchResult
	err := c.do(ctx, "search.issues", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		result, resp, err = c.gh.Search.Issues(ctx, query, opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var repos []model.Repository
	for _, issue := range result.Issues {
		owner, name, ok := repoFromAPIURL(issue.GetRepositoryURL())
		if !ok || seen[owner+"/"+name] {
			continue
		}
		seen[owner+"/"+name] = true
		if len(seen) > maxContributedRepos {
			break
		}

		repo, err := c.GetRepository(ctx, owner, name)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}
	return repos, nil
}

// repoFromAPIURL splits https://api.github.com/repos/{owner}/{name}.
func repoFromAPIURL(u string) (owner, name string, ok bool) {
	_, rest, found := strings.Cut(u, "/repos/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// GetCommitActivity fetches the last year of weekly commit activity of a
// repository. Statistics GitHub is still computing yield an empty slice.
func (c *Client) GetCommitActivity(ctx context.Context, owner, name string) ([]model.WeeklyCommits, error) {
	var weeks []*github.WeeklyCommitActivity
	err := c.do(ctx, "repositories.commit_activity", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		weeks, resp, err = c.gh.Repositories.ListCommitActivity(ctx, owner, name)
		return resp, err
	})
	var acceptedErr *github.AcceptedError
	if errors.As(err, &acceptedErr) {
		c.logger.Info("Commit activity not ready yet", "owner", owner, "repo", name)
		return []model.WeeklyCommits{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]model.WeeklyCommits, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, toInternalWeek(w))
	}
	return out, nil
}

// ListLanguages returns the bytes of code per language of a repository.
func (c *Client) ListLanguages(ctx context.Context, owner, name string) (map[string]int, error) {
	var langs map[string]int
	err := c.do(ctx, "repositories.languages", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		langs, resp, err = c.gh.Repositories.ListLanguages(ctx, owner, name)
		return resp, err
	})
	return langs, err
}

// ListOrganizations fetches the public organizations of login.
func (c *Client) ListOrganizations(ctx context.Context, login string) ([]model.Organization, error) {
	var orgs []*github.Organization
	err := c.do(ctx, "organizations.list", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		orgs, resp, err = c.gh.Organizations.List(ctx, login, &github.ListOptions{PerPage: perPage})
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Organization, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, model.Organization{
			ID:          o.GetID(),
			Login:       o.GetLogin(),
			AvatarURL:   o.GetAvatarURL(),
			Description: o.GetDescription(),
			HTMLURL:     o.GetHTMLURL(),
		})
	}
	return out, nil
}

// ListEventTimes returns the creation time of login's recent public events.
func (c *Client) ListEventTimes(ctx context.Context, login string) ([]time.Time, error) {
	var times []time.Time
	opts := &github.ListOptions{PerPage: perPage}

	for page := 0; page < maxEventPages; page++ {
		var (
			events []*github.Event
			resp   *github.Response
		)
		err := c.do(ctx, "activity.events", func() (*github.Response, error) {
			var err error
			events, resp, err = c.gh.Activity.ListEventsPerformedByUser(ctx, login, true, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			times = append(times, e.GetCreatedAt().Time)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return times, nil
}

func (c *Client) Zen(ctx context.Context) (string, error) {
	var zen string
	err := c.do(ctx, "meta.zen", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		zen, resp, err = c.gh.Meta.Zen(ctx)
		return resp, err
	})
	return zen, err
}

func (c *Client) Octocat(ctx context.Context) (string, error) {
	var cat string
	err := c.do(ctx, "meta.octocat", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		cat, resp, err = c.gh.Meta.Octocat(ctx, "")
		return resp, err
	})
	return cat, err
}

func toInternalUser(u *github.User) *model.GitHubUser {
	return &model.GitHubUser{
		ID:          u.GetID(),
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		AvatarURL:   u.GetAvatarURL(),
		HTMLURL:     u.GetHTMLURL(),
		Bio:         u.GetBio(),
		Company:     u.GetCompany(),
		Blog:        u.GetBlog(),
		Location:    u.GetLocation(),
		Email:       u.GetEmail(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time,
	}
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	return model.Repository{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Owner:           r.GetOwner().GetLogin(),
		Description:     r.GetDescription(),
		Language:        r.GetLanguage(),
		HTMLURL:         r.GetHTMLURL(),
		Fork:            r.GetFork(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		WatchersCount:   r.GetWatchersCount(),
		CreatedAt:       r.GetCreatedAt().Time,
		UpdatedAt:       r.GetUpdatedAt().Time,
		PushedAt:        r.GetPushedAt().Time,
	}
}

func toInternalWeek(w *github.WeeklyCommitActivity) model.WeeklyCommits {
	week := model.WeeklyCommits{
		Week:  w.GetWeek().Unix(),
		Total: w.GetTotal(),
	}
	copy(week.Days[:], w.Days)
	return week
}
