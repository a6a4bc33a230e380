// internal/api/handler.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"github-showcase/internal/analytics"
	"github-showcase/internal/cache"
	"github-showcase/internal/database"
	"github-showcase/internal/i18n"
	"github-showcase/internal/model"
	"github-showcase/internal/session"
	"github-showcase/internal/stats"
)

// GitHubData serves a login's GitHub data and its refresh state.
type GitHubData interface {
	User(ctx context.Context, login, token string) (*model.GitHubUser, error)
	Viewer(ctx context.Context, token string) (*model.GitHubUser, error)
	Repositories(ctx context.Context, login, token string) ([]model.Repository, error)
	Contributed(ctx context.Context, login, token string) ([]model.Repository, error)
	Commits(ctx context.Context, login, token string) ([]model.CommitRecord, error)
	Languages(ctx context.Context, login, token string) ([]model.LanguageStat, error)
	Organizations(ctx context.Context, login, token string) ([]model.Organization, error)
	Hotmap(ctx context.Context, login, token string) (model.Hotmap, error)
	UpdateStatus(ctx context.Context, login string) (model.UpdateStatus, error)
	Trigger(ctx context.Context, login, token string) error
	Zen(ctx context.Context, token string) (string, error)
	Octocat(ctx context.Context, token string) (string, error)
}

// Deps are the collaborators of the API.
type Deps struct {
	DB        database.Querier
	GitHub    GitHubData
	Cache     *cache.Cache
	Sessions  *session.Store
	Analytics *analytics.Recorder
	Messages  *i18n.Translator
	Policy    stats.Policy
	// OAuth enables the GitHub sign-in routes when set.
	OAuth   *oauth2.Config
	SiteURL string
	Secure  bool
	Logger  *slog.Logger
}

// Handler is the container for API dependencies.
type Handler struct {
	db        database.Querier
	github    GitHubData
	cache     *cache.Cache
	sessions  *session.Store
	analytics *analytics.Recorder
	messages  *i18n.Translator
	policy    stats.Policy
	oauth     *oauth2.Config
	siteURL   string
	secure    bool
	logger    *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(d Deps) http.Handler {
	h := &Handler{
		db:        d.DB,
		github:    d.GitHub,
		cache:     d.Cache,
		sessions:  d.Sessions,
		analytics: d.Analytics,
		messages:  d.Messages,
		policy:    d.Policy,
		oauth:     d.OAuth,
		siteURL:   d.SiteURL,
		secure:    d.Secure,
		logger:    d.Logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(d.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(instrument)
	r.Use(h.sessions.Load)

	r.Get("/health", h.healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	if h.oauth != nil {
		r.Get("/auth/github/login", h.githubLogin)
		r.Get("/auth/github/callback", h.githubCallback)
	}
	r.Post("/auth/logout", h.logout)

	r.Route("/github", func(r chi.Router) {
		r.Get("/zen", h.getZen)
		r.Get("/octocat", h.getOctocat)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/repositories/all", h.getAllRepositories)
			r.Get("/share/records", h.getGithubShareRecords)
			r.Patch("/toggle-share", h.toggleShare)
		})

		r.Route("/{login}", func(r chi.Router) {
			r.With(
				h.analytics.Middleware(model.RecordGithub, loginParam),
				h.cache.Middleware(cacheGithubUser, cache.URLParams("login")),
			).Get("/", h.getUser)
			r.With(h.cache.Middleware(cacheGithubRepos, cache.URLParams("login"))).Get("/repositories", h.getUserRepositories)
			r.With(h.cache.Middleware(cacheGithubContributed, cache.URLParams("login"))).Get("/contributed", h.getUserContributed)
			r.With(h.cache.Middleware(cacheGithubCommits, cache.URLParams("login"))).Get("/commits", h.getUserCommits)
			r.With(h.cache.Middleware(cacheGithubLanguages, cache.URLParams("login"))).Get("/languages", h.getUserLanguages)
			r.With(h.cache.Middleware(cacheGithubOrgs, cache.URLParams("login"))).Get("/organizations", h.getUserOrganizations)
			r.With(h.cache.Middleware(cacheGithubHotmap, cache.URLParams("login"))).Get("/hotmap", h.getUserHotmap)

			r.With(h.requireSession, h.requireOwner).Get("/update-status", h.getUpdateStatus)
			r.With(h.requireSession, h.requireOwner).Post("/update", h.updateUserData)
		})
	})

	r.Route("/resume", func(r chi.Router) {
		r.With(h.resumeByQueryHash, h.analytics.Middleware(model.RecordResume, resumeOwnerLogin),
			h.cache.Middleware(cacheResume, cache.Query("hash"))).Get("/pub", h.getPubResume)
		r.With(h.cache.Middleware(cacheResumeHash, cache.Query("login"))).Get("/hash", h.getPubResumeHash)
		r.With(h.resumeByParamHash).Get("/{hash}/share", h.getPubResumeStatus)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/edit", h.getResume)
			r.Put("/edit", h.setResume)
			r.Get("/share", h.getResumeStatus)
			r.Get("/share/records", h.getResumeShareRecords)
			r.Patch("/hireAvailable", h.setHireAvailable)
			r.Patch("/share/status", h.setResumeShareStatus)
			r.Patch("/share/template", h.setResumeShareTemplate)
			r.Patch("/share/github", h.setResumeGithubStatus)
			r.Patch("/github/section", h.setGithubShareSection)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func loginParam(r *http.Request) string {
	return chi.URLParam(r, "login")
}

// requireSession rejects requests without a signed-in user.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			respondWithError(w, http.StatusUnauthorized, h.t(r, i18n.AuthRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireOwner rejects requests for another user's login. It must run
// after requireSession.
func (h *Handler) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := session.FromContext(r.Context())
		if !sess.IsOwner(loginParam(r)) {
			respondWithError(w, http.StatusForbidden, h.t(r, i18n.AuthForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// langs lists the request's locale preferences, most preferred first.
func langs(r *http.Request) []string {
	var out []string
	if l := r.URL.Query().Get("locale"); l != "" {
		out = append(out, l)
	}
	if sess, ok := session.FromContext(r.Context()); ok && sess.Locale != "" {
		out = append(out, sess.Locale)
	}
	if al := r.Header.Get("Accept-Language"); al != "" {
		out = append(out, al)
	}
	return out
}

func (h *Handler) t(r *http.Request, id string) string {
	return h.messages.T(id, langs(r)...)
}

func (h *Handler) locale(r *http.Request) string {
	return h.messages.Locale(langs(r)...)
}

// token returns the session user's GitHub token, or "" for visitors.
func token(r *http.Request) string {
	if sess, ok := session.FromContext(r.Context()); ok {
		return sess.GithubToken
	}
	return ""
}

// invalidate drops cached responses. Failures only leave stale entries
// until they expire, so they are logged.
func (h *Handler) invalidate(r *http.Request, keys ...string) {
	if err := h.cache.Del(r.Context(), keys...); err != nil {
		h.logger.Warn("Failed to invalidate cache", "keys", keys, "error", err)
	}
}
