// internal/api/resume.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github-showcase/internal/cache"
	"github-showcase/internal/database"
	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/i18n"
	"github-showcase/internal/model"
	"github-showcase/internal/session"
)

// Cache prefixes of the public resume routes.
const (
	cacheResume     = "resume"
	cacheResumeHash = "resume-hash"
)

const defaultTemplate = "v1"

// pubResume is a resume resolved from its share hash, with its owner.
type pubResume struct {
	resume database.Resume
	owner  database.User
}

type pubResumeKey struct{}

type pubResumeResult struct {
	Resume         json.RawMessage `json:"resume"`
	Template       string          `json:"template"`
	UseGithub      bool            `json:"useGithub"`
	HireAvailable  bool            `json:"hireAvailable"`
	GithubSections json.RawMessage `json:"githubSections"`
	Login          string          `json:"login"`
}

type resumeStatusResult struct {
	OpenShare      bool            `json:"openShare"`
	UseGithub      bool            `json:"useGithub"`
	Template       string          `json:"template"`
	HireAvailable  bool            `json:"hireAvailable"`
	GithubSections json.RawMessage `json:"githubSections"`
	URL            string          `json:"url"`
}

func newHash() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func resumeShareURL(hash, locale string) string {
	return fmt.Sprintf("resume/%s?locale=%s", hash, locale)
}

func resumeCacheKeys(hash, login string) []string {
	return []string{cache.Key(cacheResume, hash), cache.Key(cacheResumeHash, login)}
}

// resumeByQueryHash resolves the resume named by the hash query value.
func (h *Handler) resumeByQueryHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash, err := requireQuery(r, "hash")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.serveWithResume(w, r, next, hash)
	})
}

// resumeByParamHash resolves the resume named by the hash route parameter.
func (h *Handler) resumeByParamHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serveWithResume(w, r, next, chi.URLParam(r, "hash"))
	})
}

func (h *Handler) serveWithResume(w http.ResponseWriter, r *http.Request, next http.Handler, hash string) {
	res, err := h.db.GetResumeByHash(r.Context(), hash)
	if errors.Is(err, pgx.ErrNoRows) {
		respondWithError(w, http.StatusNotFound, h.t(r, i18n.ResumeNotFound))
		return
	}
	if err != nil {
		h.fail(w, r, fmt.Errorf("get resume by hash: %w", err))
		return
	}
	owner, err := h.db.GetUserByID(r.Context(), res.UserID)
	if err != nil {
		h.fail(w, r, fmt.Errorf("get resume owner %d: %w", res.UserID, err))
		return
	}
	ctx := context.WithValue(r.Context(), pubResumeKey{}, &pubResume{resume: res, owner: owner})
	next.ServeHTTP(w, r.WithContext(ctx))
}

func pubResumeFrom(r *http.Request) *pubResume {
	p, _ := r.Context().Value(pubResumeKey{}).(*pubResume)
	return p
}

func resumeOwnerLogin(r *http.Request) string {
	if p := pubResumeFrom(r); p != nil {
		return p.owner.GithubLogin
	}
	return ""
}

// getPubResume handles GET /resume/pub?hash=. Unshared resumes are only
// shown to their owner and never cached.
func (h *Handler) getPubResume(w http.ResponseWriter, r *http.Request) {
	p := pubResumeFrom(r)
	if !p.resume.OpenShare {
		sess, _ := session.FromContext(r.Context())
		if !sess.IsOwner(p.owner.GithubLogin) {
			respondWithError(w, http.StatusNotFound, h.t(r, i18n.ResumeNotFound))
			return
		}
		cache.Skip(r.Context())
	}
	respondOK(w, pubResumeResult{
		Resume:         p.resume.Content,
		Template:       p.resume.Template,
		UseGithub:      p.resume.UseGithub,
		HireAvailable:  p.resume.HireAvailable,
		GithubSections: p.resume.GithubSections,
		Login:          p.owner.GithubLogin,
	}, "")
}

// getPubResumeHash handles GET /resume/hash?login=
func (h *Handler) getPubResumeHash(w http.ResponseWriter, r *http.Request) {
	login, err := requireQuery(r, "login")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.db.GetUserByLogin(r.Context(), login)
	if err == nil {
		var res database.Resume
		res, err = h.db.GetResumeByUserID(r.Context(), user.ID)
		if err == nil && res.OpenShare {
			respondOK(w, map[string]string{"hash": res.Hash}, "")
			return
		}
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		h.fail(w, r, fmt.Errorf("get resume of %s: %w", login, err))
		return
	}
	respondWithError(w, http.StatusNotFound, h.t(r, i18n.ResumeNotFound))
}

// getPubResumeStatus handles GET /resume/{hash}/share
func (h *Handler) getPubResumeStatus(w http.ResponseWriter, r *http.Request) {
	p := pubResumeFrom(r)
	respondOK(w, map[string]interface{}{
		"openShare": p.resume.OpenShare,
		"useGithub": p.resume.UseGithub,
		"login":     p.owner.GithubLogin,
	}, "")
}

// getResume handles GET /resume/edit. A user without a resume gets null.
func (h *Handler) getResume(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	res, err := h.db.GetResumeByUserID(r.Context(), sess.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		respondOK(w, nil, "")
		return
	}
	if err != nil {
		h.fail(w, r, fmt.Errorf("get resume: %w", err))
		return
	}
	respondOK(w, json.RawMessage(res.Content), "")
}

// setResume handles PUT /resume/edit. The share hash is created on the
// first save and kept afterwards.
func (h *Handler) setResume(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	b, err := decodeBody(r, "resume")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.db.UpsertResumeContent(r.Context(), database.UpsertResumeContentParams{
		UserID:  sess.UserID,
		Hash:    newHash(),
		Content: b["resume"],
	})
	if err != nil {
		h.fail(w, r, fmt.Errorf("save resume: %w", err))
		return
	}
	h.invalidate(r, resumeCacheKeys(res.Hash, sess.GithubLogin)...)
	respondOK(w, map[string]string{"hash": res.Hash}, h.t(r, i18n.ResumeSaved))
}

// getResumeStatus handles GET /resume/share
func (h *Handler) getResumeStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	res, err := h.db.GetResumeByUserID(r.Context(), sess.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		respondOK(w, resumeStatusResult{Template: defaultTemplate, GithubSections: json.RawMessage(`{}`)}, "")
		return
	}
	if err != nil {
		h.fail(w, r, fmt.Errorf("get resume: %w", err))
		return
	}
	respondOK(w, h.resumeStatus(r, res), "")
}

func (h *Handler) resumeStatus(r *http.Request, res database.Resume) resumeStatusResult {
	return resumeStatusResult{
		OpenShare:      res.OpenShare,
		UseGithub:      res.UseGithub,
		Template:       res.Template,
		HireAvailable:  res.HireAvailable,
		GithubSections: res.GithubSections,
		URL:            resumeShareURL(res.Hash, h.locale(r)),
	}
}

// getResumeShareRecords handles GET /resume/share/records
func (h *Handler) getResumeShareRecords(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	records := h.viewRecords(r, sess.GithubLogin, model.RecordResume)

	locale := h.locale(r)
	result := shareRecords(records, locale)
	res, err := h.db.GetResumeByUserID(r.Context(), sess.UserID)
	switch {
	case err == nil:
		result.OpenShare = res.OpenShare
		result.URL = resumeShareURL(res.Hash, locale)
	case !errors.Is(err, pgx.ErrNoRows):
		h.fail(w, r, fmt.Errorf("get resume: %w", err))
		return
	}
	respondOK(w, result, "")
}

// setHireAvailable handles PATCH /resume/hireAvailable
func (h *Handler) setHireAvailable(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r, "hireAvailable")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.updateResume(w, r, database.UpdateResumeSettingsParams{
		HireAvailable: pgtype.Bool{Bool: b.truthy("hireAvailable"), Valid: true},
	})
}

// setResumeShareStatus handles PATCH /resume/share/status
func (h *Handler) setResumeShareStatus(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r, "enable")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.updateResume(w, r, database.UpdateResumeSettingsParams{
		OpenShare: pgtype.Bool{Bool: b.truthy("enable"), Valid: true},
	})
}

// setResumeShareTemplate handles PATCH /resume/share/template
func (h *Handler) setResumeShareTemplate(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r, "template")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tmpl, err := b.text("template")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.updateResume(w, r, database.UpdateResumeSettingsParams{
		Template: pgtype.Text{String: tmpl, Valid: true},
	})
}

// setResumeGithubStatus handles PATCH /resume/share/github
func (h *Handler) setResumeGithubStatus(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r, "enable")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.updateResume(w, r, database.UpdateResumeSettingsParams{
		UseGithub: pgtype.Bool{Bool: b.truthy("enable"), Valid: true},
	})
}

// setGithubShareSection handles PATCH /resume/github/section. The whole
// body is stored as the section settings.
func (h *Handler) setGithubShareSection(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sections, err := json.Marshal(b)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.updateResume(w, r, database.UpdateResumeSettingsParams{GithubSections: sections})
}

// updateResume applies settings to the session user's resume and answers
// with the resulting share status.
func (h *Handler) updateResume(w http.ResponseWriter, r *http.Request, arg database.UpdateResumeSettingsParams) {
	sess, _ := session.FromContext(r.Context())
	arg.UserID = sess.UserID

	res, err := h.db.UpdateResumeSettings(r.Context(), arg)
	if errors.Is(err, pgx.ErrNoRows) {
		h.fail(w, r, fmt.Errorf("resume of user %d: %w", sess.UserID, custom_errors.ErrNotFound))
		return
	}
	if err != nil {
		h.fail(w, r, fmt.Errorf("update resume settings: %w", err))
		return
	}
	h.invalidate(r, resumeCacheKeys(res.Hash, sess.GithubLogin)...)
	respondOK(w, h.resumeStatus(r, res), "")
}
