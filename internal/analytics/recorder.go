// internal/analytics/recorder.go
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github-showcase/internal/database"
	"github-showcase/internal/model"
	"github-showcase/internal/notify"
	"github-showcase/internal/session"
	"github-showcase/internal/stats"
)

const (
	statActionPageView = "pageview"
	recordTimeout      = 10 * time.Second
)

// TxRunner runs queries in a single transaction.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(database.Querier) error) error
}

// Recorder stores page views of shared pages and announces them.
type Recorder struct {
	db       database.Querier
	tx       TxRunner
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewRecorder(db database.Querier, tx TxRunner, notifier notify.Notifier, logger *slog.Logger) *Recorder {
	return &Recorder{
		db:       db,
		tx:       tx,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Record stores a page view and bumps the daily site stat in one
// transaction, then publishes a notification. A failed notification is
// logged only.
func (r *Recorder) Record(ctx context.Context, v model.PageView) error {
	err := r.tx.ExecTx(ctx, func(q database.Querier) error {
		if err := q.CreatePageView(ctx, database.CreatePageViewParams{
			Login:    v.Login,
			Type:     v.Type,
			Platform: v.Platform,
			Browser:  v.Browser,
			Device:   v.Device,
		}); err != nil {
			return fmt.Errorf("create page view: %w", err)
		}
		if err := q.IncrementSiteStat(ctx, database.IncrementSiteStatParams{
			Type:   v.Type,
			Action: statActionPageView,
		}); err != nil {
			return fmt.Errorf("increment site stat: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	pageViews.WithLabelValues(v.Type, v.Device).Inc()
	r.logger.Info("Page viewed", "type", v.Type, "login", v.Login)

	event := notify.Event{
		Type:     v.Type,
		Login:    v.Login,
		Platform: v.Platform,
		Browser:  v.Browser,
		Device:   v.Device,
		At:       r.now(),
	}
	if err := r.notifier.Notify(ctx, event); err != nil {
		r.logger.Warn("Failed to publish view notification", "login", v.Login, "error", err)
	}
	return nil
}

// Records returns the daily view records of login's page of the given type.
func (r *Recorder) Records(ctx context.Context, login, recordType string) ([]model.ViewRecord, error) {
	rows, err := r.db.CountPageViews(ctx, database.CountPageViewsParams{Login: login, Type: recordType})
	if err != nil {
		return nil, fmt.Errorf("count page views of %s: %w", login, err)
	}
	counts := make([]stats.ViewCountRow, len(rows))
	for i, row := range rows {
		counts[i] = stats.ViewCountRow{
			Date:     row.Day,
			Platform: row.Platform,
			Browser:  row.Browser,
			Count:    int(row.Views),
		}
	}
	return stats.FoldPageViews(counts), nil
}

// Wait blocks until every view recorded in the background is stored.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// Middleware records a view of the page owned by loginOf(req) once the
// handler has answered successfully. Owners viewing their own page and
// requests with a truthy notrace query value are not recorded.
func (r *Recorder) Middleware(recordType string, loginOf func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			if ww.Status() != http.StatusOK {
				return
			}
			login := loginOf(req)
			if login == "" || stats.TruthyString(req.URL.Query().Get("notrace")) {
				return
			}
			if sess, ok := session.FromContext(req.Context()); ok && sess.IsOwner(login) {
				return
			}

			platform, browser, device := ParseUserAgent(req.UserAgent())
			view := model.PageView{
				Login:    login,
				Type:     recordType,
				Platform: platform,
				Browser:  browser,
				Device:   device,
			}
			ctx := context.WithoutCancel(req.Context())
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				ctx, cancel := context.WithTimeout(ctx, recordTimeout)
				defer cancel()
				if err := r.Record(ctx, view); err != nil {
					r.logger.Error("Failed to record page view", "type", recordType, "login", login, "error", err)
				}
			}()
		})
	}
}
