// internal/api/github.go
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github-showcase/internal/cache"
	"github-showcase/internal/database"
	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/i18n"
	"github-showcase/internal/model"
	"github-showcase/internal/session"
	"github-showcase/internal/stats"
)

// Cache prefixes of the GitHub routes.
const (
	cacheGithubUser        = "github-user"
	cacheGithubRepos       = "github-repos"
	cacheGithubContributed = "github-contributed"
	cacheGithubCommits     = "github-commits"
	cacheGithubLanguages   = "github-languages"
	cacheGithubOrgs        = "github-orgs"
	cacheGithubHotmap      = "github-hotmap"
)

// GithubCacheKeys lists every cached GitHub response of login.
func GithubCacheKeys(login string) []string {
	prefixes := []string{
		cacheGithubUser,
		cacheGithubRepos,
		cacheGithubContributed,
		cacheGithubCommits,
		cacheGithubLanguages,
		cacheGithubOrgs,
		cacheGithubHotmap,
	}
	keys := make([]string, len(prefixes))
	for i, p := range prefixes {
		keys[i] = cache.Key(p, login)
	}
	return keys
}

// userResult is a GitHub profile plus its sharing state.
type userResult struct {
	*model.GitHubUser
	OpenShare bool   `json:"openShare"`
	ShareURL  string `json:"shareUrl"`
}

type commitsResult struct {
	Commits       []model.CommitRecord `json:"commits"`
	FormatCommits model.CommitsSummary `json:"formatCommits"`
}

type shareRecordsResult struct {
	Locale      string             `json:"locale"`
	PageViews   []model.DailyCount `json:"pageViews"`
	ViewDevices []model.ViewDevice `json:"viewDevices"`
	ViewSources []model.ViewSource `json:"viewSources"`
	OpenShare   bool               `json:"openShare"`
	URL         string             `json:"url"`
}

// getZen handles GET /github/zen
func (h *Handler) getZen(w http.ResponseWriter, r *http.Request) {
	zen, err := h.github.Zen(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, zen, "")
}

// getOctocat handles GET /github/octocat
func (h *Handler) getOctocat(w http.ResponseWriter, r *http.Request) {
	art, err := h.github.Octocat(r.Context(), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, art, "")
}

// getAllRepositories handles GET /github/repositories/all, listing the
// session user's own repositories.
func (h *Handler) getAllRepositories(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	repos, err := h.github.Repositories(r.Context(), sess.GithubLogin, sess.GithubToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	own := stats.OwnRepositories(repos)
	stats.SortRepositories(own)
	respondOK(w, stats.Summaries(own), "")
}

// getGithubShareRecords handles GET /github/share/records
func (h *Handler) getGithubShareRecords(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	records := h.viewRecords(r, sess.GithubLogin, model.RecordGithub)

	user, err := h.db.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		h.fail(w, r, fmt.Errorf("get user %d: %w", sess.UserID, err))
		return
	}

	locale := h.locale(r)
	res := shareRecords(records, locale)
	res.OpenShare = user.GithubShare
	res.URL = githubShareURL(sess.GithubLogin, locale)
	respondOK(w, res, "")
}

// viewRecords loads view records, falling back to none when the stats
// store is unavailable.
func (h *Handler) viewRecords(r *http.Request, login, recordType string) []model.ViewRecord {
	records, err := h.analytics.Records(r.Context(), login, recordType)
	if err != nil {
		h.logger.Error("Failed to load view records", "login", login, "type", recordType, "error", err)
		return nil
	}
	return records
}

func shareRecords(records []model.ViewRecord, locale string) shareRecordsResult {
	pageViews, devices, sources := stats.FlattenViewRecords(records)
	return shareRecordsResult{
		Locale:      locale,
		PageViews:   pageViews,
		ViewDevices: devices,
		ViewSources: sources,
	}
}

func githubShareURL(login, locale string) string {
	return fmt.Sprintf("%s/github?locale=%s", login, locale)
}

// toggleShare handles PATCH /github/toggle-share
func (h *Handler) toggleShare(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	b, err := decodeBody(r, "enable")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	enable := b.truthy("enable")

	err = h.db.SetGithubShare(r.Context(), database.SetGithubShareParams{ID: sess.UserID, GithubShare: enable})
	if err != nil {
		h.fail(w, r, fmt.Errorf("set github share: %w", err))
		return
	}
	h.invalidate(r, cache.Key(cacheGithubUser, sess.GithubLogin))

	msg := i18n.ShareToggleClose
	if enable {
		msg = i18n.ShareToggleOpen
	}
	respondOK(w, nil, h.t(r, msg))
}

// getUser handles GET /github/{login}. Unknown logins are redirected to the
// not-found page.
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	login := loginParam(r)

	var (
		ghUser    *model.GitHubUser
		openShare bool
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		ghUser, err = h.github.User(gctx, login, token(r))
		return err
	})
	g.Go(func() error {
		u, err := h.db.GetUserByLogin(gctx, login)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get user %s: %w", login, err)
		}
		openShare = u.GithubShare
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, custom_errors.ErrNotFound) {
			http.Redirect(w, r, "/404", http.StatusFound)
			return
		}
		h.fail(w, r, err)
		return
	}

	respondOK(w, userResult{
		GitHubUser: ghUser,
		OpenShare:  openShare,
		ShareURL:   githubShareURL(login, h.locale(r)),
	}, "")
}

// getUserRepositories handles GET /github/{login}/repositories
func (h *Handler) getUserRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.github.Repositories(r.Context(), loginParam(r), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	own := stats.OwnRepositories(repos)
	stats.SortRepositories(own)
	respondOK(w, own, "")
}

// getUserContributed handles GET /github/{login}/contributed
func (h *Handler) getUserContributed(w http.ResponseWriter, r *http.Request) {
	repos, err := h.github.Contributed(r.Context(), loginParam(r), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats.SortRepositories(repos)
	respondOK(w, nonNil(repos), "")
}

// getUserCommits handles GET /github/{login}/commits. Empty results are
// not cached since the first sync may still be running.
func (h *Handler) getUserCommits(w http.ResponseWriter, r *http.Request) {
	commits, err := h.github.Commits(r.Context(), loginParam(r), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(commits) == 0 {
		cache.Skip(r.Context())
	}
	formatted := stats.CombineReposCommits(commits)
	stats.SortCommits(commits)
	respondOK(w, commitsResult{Commits: nonNil(commits), FormatCommits: formatted}, "")
}

// getUserLanguages handles GET /github/{login}/languages
func (h *Handler) getUserLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.github.Languages(r.Context(), loginParam(r), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, nonNil(languages), "")
}

// getUserOrganizations handles GET /github/{login}/organizations
func (h *Handler) getUserOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.github.Organizations(r.Context(), loginParam(r), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, nonNil(orgs), "")
}

// getUserHotmap handles GET /github/{login}/hotmap
func (h *Handler) getUserHotmap(w http.ResponseWriter, r *http.Request) {
	hotmap, err := h.github.Hotmap(r.Context(), loginParam(r), token(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, hotmap, "")
}

// getUpdateStatus handles GET /github/{login}/update-status. Seeing a
// successful update marks the session user as initialed.
func (h *Handler) getUpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	st, err := h.github.UpdateStatus(r.Context(), sess.GithubLogin)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Info("Update status", "login", sess.GithubLogin, "status", st.Status)

	if st.Status == model.StatusSuccess {
		if err := h.db.SetInitialed(r.Context(), sess.UserID); err != nil {
			h.fail(w, r, fmt.Errorf("set initialed: %w", err))
			return
		}
	}

	msg := ""
	if id := i18n.StatusMessage(st.Status); id != "" {
		msg = h.t(r, id)
	}
	respondOK(w, h.policy.Evaluate(st), msg)
}

// updateUserData handles POST /github/{login}/update. A refresh already in
// progress is reported as pending without starting another.
func (h *Handler) updateUserData(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	st, err := h.github.UpdateStatus(r.Context(), sess.GithubLogin)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch {
	case !stats.UpdateFinished(st.Status):
	case !h.policy.RefreshEnable(st.Status, st.LastUpdateTime):
		h.fail(w, r, &custom_errors.ErrRefreshTooFrequent{Remaining: h.policy.Remaining(st.LastUpdateTime)})
		return
	default:
		if err := h.github.Trigger(r.Context(), sess.GithubLogin, sess.GithubToken); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	respondOK(w, nil, h.t(r, i18n.UpdatePending))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
