// internal/database/stats.sql.go
package database

import (
	"context"
)

const createPageView = `
INSERT INTO page_views (login, type, platform, browser, device)
VALUES (lower($1), $2, $3, $4, $5)`

type CreatePageViewParams struct {
	Login    string
	Type     string
	Platform string
	Browser  string
	Device   string
}

func (q *Queries) CreatePageView(ctx context.Context, arg CreatePageViewParams) error {
	_, err := q.db.Exec(ctx, createPageView,
		arg.Login,
		arg.Type,
		arg.Platform,
		arg.Browser,
		arg.Device,
	)
	return err
}

const incrementSiteStat = `
INSERT INTO site_stats (type, action, day, count)
VALUES ($1, $2, CURRENT_DATE, 1)
ON CONFLICT (type, action, day) DO UPDATE
SET count = site_stats.count + 1`

type IncrementSiteStatParams struct {
	Type   string
	Action string
}

func (q *Queries) IncrementSiteStat(ctx context.Context, arg IncrementSiteStatParams) error {
	_, err := q.db.Exec(ctx, incrementSiteStat, arg.Type, arg.Action)
	return err
}

const countPageViews = `
SELECT to_char(date_trunc('day', viewed_at), 'YYYY-MM-DD') AS day, platform, browser, count(*)::int AS views
FROM page_views
WHERE login = lower($1) AND type = $2
GROUP BY 1, 2, 3
ORDER BY 1, 2, 3`

type CountPageViewsParams struct {
	Login string
	Type  string
}

type CountPageViewsRow struct {
	Day      string
	Platform string
	Browser  string
	Views    int32
}

func (q *Queries) CountPageViews(ctx context.Context, arg CountPageViewsParams) ([]CountPageViewsRow, error) {
	rows, err := q.db.Query(ctx, countPageViews, arg.Login, arg.Type)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CountPageViewsRow
	for rows.Next() {
		var i CountPageViewsRow
		if err := rows.Scan(&i.Day, &i.Platform, &i.Browser, &i.Views); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
