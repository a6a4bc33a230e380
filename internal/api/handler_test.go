// internal/api/handler_test.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-showcase/internal/analytics"
	"github-showcase/internal/cache"
	"github-showcase/internal/database"
	"github-showcase/internal/database/dbmock"
	custom_errors "github-showcase/internal/errors"
	"github-showcase/internal/i18n"
	"github-showcase/internal/model"
	"github-showcase/internal/notify"
	"github-showcase/internal/session"
	"github-showcase/internal/stats"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// MockGitHubData is a mock of the GitHubData interface.
type MockGitHubData struct {
	mock.Mock
}

func (m *MockGitHubData) User(ctx context.Context, login, token string) (*model.GitHubUser, error) {
	args := m.Called(ctx, login, token)
	u, _ := args.Get(0).(*model.GitHubUser)
	return u, args.Error(1)
}
func (m *MockGitHubData) Viewer(ctx context.Context, token string) (*model.GitHubUser, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*model.GitHubUser)
	return u, args.Error(1)
}
func (m *MockGitHubData) Repositories(ctx context.Context, login, token string) ([]model.Repository, error) {
	args := m.Called(ctx, login, token)
	return args.Get(0).([]model.Repository), args.Error(1)
}
func (m *MockGitHubData) Contributed(ctx context.Context, login, token string) ([]model.Repository, error) {
	args := m.Called(ctx, login, token)
	return args.Get(0).([]model.Repository), args.Error(1)
}
func (m *MockGitHubData) Commits(ctx context.Context, login, token string) ([]model.CommitRecord, error) {
	args := m.Called(ctx, login, token)
	return args.Get(0).([]model.CommitRecord), args.Error(1)
}
func (m *MockGitHubData) Languages(ctx context.Context, login, token string) ([]model.LanguageStat, error) {
	args := m.Called(ctx, login, token)
	return args.Get(0).([]model.LanguageStat), args.Error(1)
}
func (m *MockGitHubData) Organizations(ctx context.Context, login, token string) ([]model.Organization, error) {
	args := m.Called(ctx, login, token)
	return args.Get(0).([]model.Organization), args.Error(1)
}
func (m *MockGitHubData) Hotmap(ctx context.Context, login, token string) (model.Hotmap, error) {
	args := m.Called(ctx, login, token)
	return args.Get(0).(model.Hotmap), args.Error(1)
}
func (m *MockGitHubData) UpdateStatus(ctx context.Context, login string) (model.UpdateStatus, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(model.UpdateStatus), args.Error(1)
}
func (m *MockGitHubData) Trigger(ctx context.Context, login, token string) error {
	return m.Called(ctx, login, token).Error(0)
}
func (m *MockGitHubData) Zen(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}
func (m *MockGitHubData) Octocat(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type inlineTx struct {
	q database.Querier
}

func (t inlineTx) ExecTx(_ context.Context, fn func(database.Querier) error) error {
	return fn(t.q)
}

type testServer struct {
	router   http.Handler
	db       *dbmock.MockQuerier
	gh       *MockGitHubData
	mr       *miniredis.Miniredis
	sessions *session.Store
	recorder *analytics.Recorder
}

func newTestServer(t *testing.T, mutate ...func(*Deps)) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	messages, err := i18n.New("en")
	require.NoError(t, err)

	db := new(dbmock.MockQuerier)
	gh := new(MockGitHubData)
	sessions := session.NewStore(rdb, session.Options{TTL: time.Hour}, logger)
	recorder := analytics.NewRecorder(db, inlineTx{q: db}, notify.NewLogNotifier(logger), logger)

	d := Deps{
		DB:        db,
		GitHub:    gh,
		Cache:     cache.New(rdb, time.Minute, logger),
		Sessions:  sessions,
		Analytics: recorder,
		Messages:  messages,
		Policy:    stats.Policy{RefreshInterval: time.Hour, Now: func() time.Time { return testNow }},
		SiteURL:   "https://showcase.example",
		Logger:    logger,
	}
	for _, m := range mutate {
		m(&d)
	}
	return &testServer{
		router:   NewRouter(d),
		db:       db,
		gh:       gh,
		mr:       mr,
		sessions: sessions,
		recorder: recorder,
	}
}

var (
	octocatSession = session.Session{UserID: 7, GithubLogin: "octocat", GithubToken: "gho_user", Locale: "en"}
	hubotSession   = session.Session{UserID: 9, GithubLogin: "hubot", GithubToken: "gho_hubot", Locale: "en"}
)

// signIn returns a session cookie for sess.
func (s *testServer) signIn(t *testing.T, sess session.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := s.sessions.Create(context.Background(), rec, sess)
	require.NoError(t, err)
	return rec.Result().Cookies()[0]
}

func (s *testServer) do(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.recorder.Wait()
	return rec
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequireSession(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/github/repositories/all", "/github/share/records", "/resume/edit", "/github/octocat/update-status"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		env := decode(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "Please sign in first", env.Message)
	}
}

func TestToggleShare(t *testing.T) {
	cases := []struct {
		body    string
		want    bool
		message string
	}{
		{`{"enable":"true"}`, true, "Sharing is now on"},
		{`{"enable":true}`, true, "Sharing is now on"},
		{`{"enable":0}`, false, "Sharing is now off"},
		{`{"enable":"false"}`, false, "Sharing is now off"},
		{`{"enable":null}`, false, "Sharing is now off"},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			s := newTestServer(t)
			cookie := s.signIn(t, octocatSession)
			userKey := cache.Key("github-user", "octocat")
			require.NoError(t, s.mr.Set(userKey, `{"success":true}`))

			s.db.On("SetGithubShare", mock.Anything, database.SetGithubShareParams{ID: 7, GithubShare: tc.want}).Return(nil).Once()

			rec := s.do(http.MethodPatch, "/github/toggle-share", tc.body, cookie)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			env := decode(t, rec)
			assert.True(t, env.Success)
			assert.Equal(t, tc.message, env.Message)
			assert.False(t, s.mr.Exists(userKey), "cached profile is dropped")
			s.db.AssertExpectations(t)
		})
	}

	t.Run("requires enable", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(http.MethodPatch, "/github/toggle-share", `{}`, s.signIn(t, octocatSession))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec).Message, "enable")
		s.db.AssertNotCalled(t, "SetGithubShare", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(http.MethodPatch, "/github/toggle-share", `[1,2]`, s.signIn(t, octocatSession))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetUpdateStatus(t *testing.T) {
	t.Run("success marks the user initialed", func(t *testing.T) {
		s := newTestServer(t)
		last := testNow.Add(-2 * time.Hour)
		s.gh.On("UpdateStatus", mock.Anything, "octocat").Return(model.UpdateStatus{Status: model.StatusSuccess, LastUpdateTime: last}, nil)
		s.db.On("SetInitialed", mock.Anything, int64(7)).Return(nil).Once()

		rec := s.do(http.MethodGet, "/github/octocat/update-status", "", s.signIn(t, octocatSession))

		require.Equal(t, http.StatusOK, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, "Your GitHub data is up to date", env.Message)
		var view stats.StatusView
		require.NoError(t, json.Unmarshal(env.Result, &view))
		assert.Equal(t, stats.StatusView{Status: 1, LastUpdateTime: last, Finished: true, Refreshing: false, RefreshEnable: true}, view)
		s.db.AssertExpectations(t)
	})

	t.Run("in progress", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("UpdateStatus", mock.Anything, "octocat").Return(model.UpdateStatus{Status: model.StatusUpdatingRepos, LastUpdateTime: testNow.Add(-48 * time.Hour)}, nil)

		rec := s.do(http.MethodGet, "/github/octocat/update-status", "", s.signIn(t, octocatSession))

		env := decode(t, rec)
		assert.Equal(t, "Fetching repositories", env.Message)
		var view stats.StatusView
		require.NoError(t, json.Unmarshal(env.Result, &view))
		assert.False(t, view.Finished)
		assert.True(t, view.Refreshing)
		assert.False(t, view.RefreshEnable)
		s.db.AssertNotCalled(t, "SetInitialed", mock.Anything, mock.Anything)
	})

	t.Run("only for the owner", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(http.MethodGet, "/github/hubot/update-status", "", s.signIn(t, octocatSession))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUpdateUserData(t *testing.T) {
	t.Run("pending refresh is not restarted", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("UpdateStatus", mock.Anything, "octocat").Return(model.UpdateStatus{Status: model.StatusUpdatingCommits}, nil)

		rec := s.do(http.MethodPost, "/github/octocat/update", "", s.signIn(t, octocatSession))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Update started, this may take a few minutes", decode(t, rec).Message)
		s.gh.AssertNotCalled(t, "Trigger", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too soon after the last update", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("UpdateStatus", mock.Anything, "octocat").Return(model.UpdateStatus{Status: model.StatusSuccess, LastUpdateTime: testNow.Add(-time.Minute)}, nil)

		rec := s.do(http.MethodPost, "/github/octocat/update", "", s.signIn(t, octocatSession))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		env := decode(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "Updated recently, please try again later", env.Message)
		s.gh.AssertNotCalled(t, "Trigger", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("triggers a refresh with the user token", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("UpdateStatus", mock.Anything, "octocat").Return(model.UpdateStatus{Status: model.StatusFailed, LastUpdateTime: testNow.Add(-2 * time.Hour)}, nil)
		s.gh.On("Trigger", mock.Anything, "octocat", "gho_user").Return(nil).Once()

		rec := s.do(http.MethodPost, "/github/octocat/update", "", s.signIn(t, octocatSession))

		require.Equal(t, http.StatusOK, rec.Code)
		s.gh.AssertExpectations(t)
	})
}

func TestGetUserRepositories(t *testing.T) {
	s := newTestServer(t)
	s.gh.On("Repositories", mock.Anything, "octocat", "").Return([]model.Repository{
		{Name: "a", Fork: true, StargazersCount: 100},
		{Name: "b", StargazersCount: 5},
		{Name: "c", StargazersCount: 50},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/github/octocat/repositories", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var repos []model.Repository
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, &repos))
	require.Len(t, repos, 2)
	assert.Equal(t, "c", repos[0].Name)
	assert.Equal(t, "b", repos[1].Name)

	// Served from the cache the second time.
	rec = s.do(http.MethodGet, "/github/octocat/repositories", "", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	s.gh.AssertExpectations(t)
}

func TestGetUserContributed(t *testing.T) {
	s := newTestServer(t)
	s.gh.On("Contributed", mock.Anything, "octocat", "").Return([]model.Repository{
		{Name: "small", Owner: "acme", StargazersCount: 2},
		{Name: "huge", Owner: "golang", StargazersCount: 900},
		{Name: "mid", Owner: "kubernetes", StargazersCount: 40},
		{Name: "tiny", Owner: "acme", StargazersCount: 0},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/github/octocat/contributed", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var repos []model.Repository
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, &repos))
	require.Len(t, repos, 4)
	for i := 1; i < len(repos); i++ {
		assert.GreaterOrEqual(t, repos[i-1].StargazersCount, repos[i].StargazersCount)
	}
	assert.Equal(t, "huge", repos[0].Name)
	assert.Equal(t, "tiny", repos[3].Name)
	s.gh.AssertExpectations(t)
}

func TestGetUserOrganizations(t *testing.T) {
	t.Run("passes organizations through", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("Organizations", mock.Anything, "octocat", "").Return([]model.Organization{
			{ID: 2, Login: "zeta", AvatarURL: "https://avatars.example/z"},
			{ID: 1, Login: "alpha", Description: "first"},
		}, nil).Once()

		rec := s.do(http.MethodGet, "/github/octocat/organizations", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[
			{"id":2,"login":"zeta","avatar_url":"https://avatars.example/z","description":"","html_url":""},
			{"id":1,"login":"alpha","avatar_url":"","description":"first","html_url":""}
		]`, string(decode(t, rec).Result))
	})

	t.Run("renders no organizations as an empty list", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("Organizations", mock.Anything, "octocat", "").Return([]model.Organization(nil), nil).Once()

		rec := s.do(http.MethodGet, "/github/octocat/organizations", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, string(decode(t, rec).Result))
	})
}

func TestGetUserHotmap(t *testing.T) {
	s := newTestServer(t)
	hotmap := model.Hotmap{
		Start: "2024-02-01",
		End:   "2024-02-03",
		Total: 5,
		Datas: []model.HotmapDay{
			{Date: "2024-02-01", Count: 0, Level: 0},
			{Date: "2024-02-02", Count: 4, Level: 3},
			{Date: "2024-02-03", Count: 1, Level: 1},
		},
	}
	s.gh.On("Hotmap", mock.Anything, "octocat", "").Return(hotmap, nil).Once()

	rec := s.do(http.MethodGet, "/github/octocat/hotmap", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Hotmap
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, &got))
	assert.Equal(t, hotmap, got)

	rec = s.do(http.MethodGet, "/github/octocat/hotmap", "", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	s.gh.AssertExpectations(t)
}

func TestGetAllRepositories(t *testing.T) {
	s := newTestServer(t)
	s.gh.On("Repositories", mock.Anything, "octocat", "gho_user").Return([]model.Repository{
		{Name: "fork", Fork: true, StargazersCount: 9},
		{Name: "tool", Language: "Go", StargazersCount: 3, Description: "not projected"},
	}, nil)

	rec := s.do(http.MethodGet, "/github/repositories/all", "", s.signIn(t, octocatSession))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"tool","language":"Go","stargazers_count":3}]`, string(decode(t, rec).Result))
}

func TestGetUserCommits(t *testing.T) {
	t.Run("sorts and folds commits", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("Commits", mock.Anything, "octocat", "").Return([]model.CommitRecord{
			{Name: "low", TotalCommits: 2, Commits: []model.WeeklyCommits{{Week: 10, Total: 2, Days: [7]int{2}}}},
			{Name: "high", TotalCommits: 9, Commits: []model.WeeklyCommits{{Week: 10, Total: 9, Days: [7]int{0, 9}}}},
		}, nil)

		rec := s.do(http.MethodGet, "/github/octocat/commits", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var res commitsResult
		require.NoError(t, json.Unmarshal(decode(t, rec).Result, &res))
		assert.Equal(t, "high", res.Commits[0].Name)
		assert.Equal(t, 11, res.FormatCommits.Total)
		require.Len(t, res.FormatCommits.Commits, 1)
		assert.Equal(t, [7]int{2, 9}, res.FormatCommits.DailyCommits)
		assert.True(t, s.mr.Exists(cache.Key("github-commits", "octocat")))
	})

	t.Run("empty commits are not cached", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("Commits", mock.Anything, "octocat", "").Return([]model.CommitRecord(nil), nil)

		rec := s.do(http.MethodGet, "/github/octocat/commits", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"commits":[],"formatCommits":{"total":0,"dailyCommits":[0,0,0,0,0,0,0],"commits":[]}}`, string(decode(t, rec).Result))
		assert.False(t, s.mr.Exists(cache.Key("github-commits", "octocat")))
	})
}

func TestGetUser(t *testing.T) {
	t.Run("adds the share state and records the view", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("User", mock.Anything, "hubot", "").Return(&model.GitHubUser{Login: "hubot", Name: "The Octocat"}, nil)
		s.db.On("GetUserByLogin", mock.Anything, "hubot").Return(database.User{ID: 9, GithubLogin: "hubot", GithubShare: true}, nil)
		s.db.On("CreatePageView", mock.Anything, mock.MatchedBy(func(p database.CreatePageViewParams) bool {
			return p.Login == "hubot" && p.Type == model.RecordGithub
		})).Return(nil).Once()
		s.db.On("IncrementSiteStat", mock.Anything, database.IncrementSiteStatParams{Type: "github", Action: "pageview"}).Return(nil).Once()

		rec := s.do(http.MethodGet, "/github/hubot?locale=zh", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var res map[string]interface{}
		require.NoError(t, json.Unmarshal(decode(t, rec).Result, &res))
		assert.Equal(t, "The Octocat", res["name"])
		assert.Equal(t, true, res["openShare"])
		assert.Equal(t, "hubot/github?locale=zh", res["shareUrl"])
		s.db.AssertExpectations(t)
	})

	t.Run("unknown logins are redirected", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("User", mock.Anything, "ghost", "").Return(nil, fmt.Errorf("user ghost: %w", custom_errors.ErrNotFound))
		s.db.On("GetUserByLogin", mock.Anything, "ghost").Return(database.User{}, pgx.ErrNoRows)

		rec := s.do(http.MethodGet, "/github/ghost", "", nil)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/404", rec.Header().Get("Location"))
		s.db.AssertNotCalled(t, "CreatePageView", mock.Anything, mock.Anything)
	})

	t.Run("owners are not recorded", func(t *testing.T) {
		s := newTestServer(t)
		s.gh.On("User", mock.Anything, "hubot", "gho_hubot").Return(&model.GitHubUser{Login: "hubot"}, nil)
		s.db.On("GetUserByLogin", mock.Anything, "hubot").Return(database.User{GithubShare: false}, nil)

		rec := s.do(http.MethodGet, "/github/hubot", "", s.signIn(t, hubotSession))

		require.Equal(t, http.StatusOK, rec.Code)
		s.db.AssertNotCalled(t, "CreatePageView", mock.Anything, mock.Anything)
	})
}

func TestGetGithubShareRecords(t *testing.T) {
	s := newTestServer(t)
	s.db.On("CountPageViews", mock.Anything, database.CountPageViewsParams{Login: "octocat", Type: "github"}).
		Return([]database.CountPageViewsRow(nil), assert.AnError)
	s.db.On("GetUserByID", mock.Anything, int64(7)).Return(database.User{ID: 7, GithubShare: true}, nil)

	rec := s.do(http.MethodGet, "/github/share/records", "", s.signIn(t, octocatSession))

	require.Equal(t, http.StatusOK, rec.Code, "a stats failure falls back to empty records")
	assert.JSONEq(t, `{
		"locale": "en",
		"pageViews": [],
		"viewDevices": [],
		"viewSources": [],
		"openShare": true,
		"url": "octocat/github?locale=en"
	}`, string(decode(t, rec).Result))
}

func TestGetZen(t *testing.T) {
	s := newTestServer(t)
	s.gh.On("Zen", mock.Anything, "").Return("Keep it logically awesome.", nil)

	rec := s.do(http.MethodGet, "/github/zen", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"result":"Keep it logically awesome."}`, rec.Body.String())
}

func TestUpstreamFailure(t *testing.T) {
	s := newTestServer(t)
	s.gh.On("Languages", mock.Anything, "octocat", "").Return([]model.LanguageStat(nil), assert.AnError)

	rec := s.do(http.MethodGet, "/github/octocat/languages", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.NotContains(t, env.Message, assert.AnError.Error())
	assert.False(t, s.mr.Exists(cache.Key("github-languages", "octocat")))
}
