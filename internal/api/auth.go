// internal/api/auth.go
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github-showcase/internal/database"
	"github-showcase/internal/session"
)

const (
	oauthStateCookieName = "oauth_state"
	oauthStateTTL        = 10 * time.Minute
)

// githubLogin handles GET /auth/github/login by redirecting to GitHub with
// a state bound to a short-lived cookie.
func (h *Handler) githubLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

// githubCallback handles GET /auth/github/callback. It signs the user in
// and starts the first sync of a new account.
func (h *Handler) githubCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookieName, Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.secure})
	c, err := r.Cookie(oauthStateCookieName)
	if state == "" || err != nil || c.Value != state {
		h.logger.Warn("OAuth state mismatch", "error", err)
		respondWithError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	code, err := requireQuery(r, "code")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tok, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("OAuth code exchange failed", "error", err)
		respondWithError(w, http.StatusUnauthorized, "github authorization failed")
		return
	}
	viewer, err := h.github.Viewer(r.Context(), tok.AccessToken)
	if err != nil {
		h.fail(w, r, fmt.Errorf("fetch github viewer: %w", err))
		return
	}

	user, err := h.db.UpsertUser(r.Context(), database.UpsertUserParams{
		GithubID:    viewer.ID,
		GithubLogin: viewer.Login,
		Name:        viewer.Name,
		Email:       viewer.Email,
		AvatarUrl:   viewer.AvatarURL,
	})
	if err != nil {
		h.fail(w, r, fmt.Errorf("upsert user %s: %w", viewer.Login, err))
		return
	}

	_, err = h.sessions.Create(r.Context(), w, session.Session{
		UserID:      user.ID,
		GithubLogin: user.GithubLogin,
		GithubToken: tok.AccessToken,
		Locale:      h.locale(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	logger := h.logger.With("login", user.GithubLogin, "user_id", user.ID)
	logger.Info("User signed in")

	if !user.Initialed {
		if err := h.github.Trigger(r.Context(), user.GithubLogin, tok.AccessToken); err != nil {
			logger.Error("Failed to start first sync", "error", err)
		}
	}
	http.Redirect(w, r, strings.TrimSuffix(h.siteURL, "/")+"/dashboard", http.StatusFound)
}

// logout handles POST /auth/logout
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.fail(w, r, err)
		return
	}
	respondOK(w, nil, "")
}
