// internal/session/session.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "showcase:session:"

// Session is the server-side state of a signed-in user.
type Session struct {
	UserID      int64  `json:"userId"`
	GithubLogin string `json:"githubLogin"`
	GithubToken string `json:"githubToken"`
	Locale      string `json:"locale,omitempty"`
}

// IsOwner reports whether login belongs to the session user.
func (s *Session) IsOwner(login string) bool {
	return s != nil && login != "" && strings.EqualFold(s.GithubLogin, login)
}

type Options struct {
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Store keeps sessions in Redis behind an opaque cookie.
type Store struct {
	rdb    redis.UniversalClient
	opts   Options
	logger *slog.Logger
}

func NewStore(rdb redis.UniversalClient, opts Options, logger *slog.Logger) *Store {
	if opts.CookieName == "" {
		opts.CookieName = "showcase_sid"
	}
	return &Store{rdb: rdb, opts: opts, logger: logger}
}

// Create stores sess under a new id and sets the session cookie.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, sess Session) (string, error) {
	id := uuid.NewString()
	if err := s.Save(ctx, id, sess); err != nil {
		return "", err
	}
	http.SetCookie(w, s.cookie(id, int(s.opts.TTL.Seconds())))
	return id, nil
}

// Save overwrites the session and restarts its expiry.
func (s *Store) Save(ctx context.Context, id string, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+id, b, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis SET session: %w", err)
	}
	return nil
}

// Get returns the session stored under id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	b, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Destroy deletes the request's session and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, s.cookie("", -1))
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil {
		return nil
	}
	if err := s.rdb.Del(ctx, keyPrefix+c.Value).Err(); err != nil {
		return fmt.Errorf("redis DEL session: %w", err)
	}
	return nil
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type ctxKey struct{}

// Load attaches the request's session, if any, to its context. Lookup
// failures are logged and treated as signed out.
func (s *Store) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.opts.CookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.Get(r.Context(), c.Value)
		if err != nil {
			s.logger.Warn("Failed to load session", "error", err)
		}
		if sess != nil {
			r = r.WithContext(NewContext(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session loaded for the request.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok && sess != nil
}
