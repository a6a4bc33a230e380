// internal/api/auth_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github-showcase/internal/database"
	"github-showcase/internal/model"
	"github-showcase/internal/session"
)

func newOAuthServer(t *testing.T) (*testServer, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_new","token_type":"bearer","scope":"read:user"}`))
	}))
	t.Cleanup(ts.Close)

	s := newTestServer(t, func(d *Deps) {
		d.OAuth = &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "https://showcase.example/auth/github/callback",
			Scopes:       []string{"read:user"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  ts.URL + "/authorize",
				TokenURL: ts.URL + "/token",
			},
		}
	})
	return s, ts
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func callback(s *testServer, query string, state *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+query, nil)
	if state != nil {
		req.AddCookie(state)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestGithubLogin(t *testing.T) {
	s, ts := newOAuthServer(t)

	rec := s.do(http.MethodGet, "/auth/github/login", "", nil)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc.String(), ts.URL+"/authorize"))

	state := findCookie(rec, oauthStateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, "client", loc.Query().Get("client_id"))
	assert.True(t, state.HttpOnly)
}

func TestGithubCallback(t *testing.T) {
	stateCookie := &http.Cookie{Name: oauthStateCookieName, Value: "s1"}

	t.Run("signs in and starts the first sync", func(t *testing.T) {
		s, _ := newOAuthServer(t)
		s.gh.On("Viewer", mock.Anything, "gho_new").Return(&model.GitHubUser{ID: 42, Login: "hubot", Name: "Hubot"}, nil)
		s.db.On("UpsertUser", mock.Anything, database.UpsertUserParams{GithubID: 42, GithubLogin: "hubot", Name: "Hubot"}).
			Return(database.User{ID: 9, GithubLogin: "hubot"}, nil)
		s.gh.On("Trigger", mock.Anything, "hubot", "gho_new").Return(nil).Once()

		rec := callback(s, "state=s1&code=good-code", stateCookie)

		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
		assert.Equal(t, "https://showcase.example/dashboard", rec.Header().Get("Location"))

		sid := findCookie(rec, "showcase_sid")
		require.NotNil(t, sid)
		sess, err := s.sessions.Get(context.Background(), sid.Value)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, session.Session{UserID: 9, GithubLogin: "hubot", GithubToken: "gho_new", Locale: "en"}, *sess)
		s.gh.AssertExpectations(t)
	})

	t.Run("initialed users are not synced again", func(t *testing.T) {
		s, _ := newOAuthServer(t)
		s.gh.On("Viewer", mock.Anything, "gho_new").Return(&model.GitHubUser{ID: 42, Login: "hubot"}, nil)
		s.db.On("UpsertUser", mock.Anything, mock.Anything).Return(database.User{ID: 9, GithubLogin: "hubot", Initialed: true}, nil)

		rec := callback(s, "state=s1&code=good-code", stateCookie)

		require.Equal(t, http.StatusFound, rec.Code)
		s.gh.AssertNotCalled(t, "Trigger", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("state mismatch", func(t *testing.T) {
		s, _ := newOAuthServer(t)

		rec := callback(s, "state=other&code=good-code", stateCookie)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		s.gh.AssertNotCalled(t, "Viewer", mock.Anything, mock.Anything)
	})

	t.Run("missing state cookie", func(t *testing.T) {
		s, _ := newOAuthServer(t)

		rec := callback(s, "state=s1&code=good-code", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejected code", func(t *testing.T) {
		s, _ := newOAuthServer(t)

		rec := callback(s, "state=s1&code=bad-code", stateCookie)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, findCookie(rec, "showcase_sid"))
	})
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signIn(t, hubotSession)

	rec := s.do(http.MethodPost, "/auth/logout", "", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	sess, err := s.sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestOAuthRoutesDisabled(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/auth/github/login", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
