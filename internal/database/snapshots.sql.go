// internal/database/snapshots.sql.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSnapshot = `
SELECT login, profile, repositories, contributed, commits, languages, organizations, hotmap,
       synced, update_status, last_update_time
FROM github_snapshots
WHERE login = lower($1)`

func (q *Queries) GetSnapshot(ctx context.Context, login string) (GithubSnapshot, error) {
	row := q.db.QueryRow(ctx, getSnapshot, login)
	var s GithubSnapshot
	err := row.Scan(
		&s.Login,
		&s.Profile,
		&s.Repositories,
		&s.Contributed,
		&s.Commits,
		&s.Languages,
		&s.Organizations,
		&s.Hotmap,
		&s.Synced,
		&s.UpdateStatus,
		&s.LastUpdateTime,
	)
	return s, err
}

const getUpdateStatus = `SELECT update_status, last_update_time, updated_at FROM github_snapshots WHERE login = lower($1)`

type GetUpdateStatusRow struct {
	UpdateStatus   int16
	LastUpdateTime pgtype.Timestamptz
	UpdatedAt      time.Time
}

func (q *Queries) GetUpdateStatus(ctx context.Context, login string) (GetUpdateStatusRow, error) {
	row := q.db.QueryRow(ctx, getUpdateStatus, login)
	var i GetUpdateStatusRow
	err := row.Scan(&i.UpdateStatus, &i.LastUpdateTime, &i.UpdatedAt)
	return i, err
}

const setUpdateStatus = `
INSERT INTO github_snapshots (login, update_status)
VALUES (lower($1), $2)
ON CONFLICT (login) DO UPDATE
SET update_status = EXCLUDED.update_status,
    updated_at = now()`

type SetUpdateStatusParams struct {
	Login        string
	UpdateStatus int16
}

func (q *Queries) SetUpdateStatus(ctx context.Context, arg SetUpdateStatusParams) error {
	_, err := q.db.Exec(ctx, setUpdateStatus, arg.Login, arg.UpdateStatus)
	return err
}

const saveSnapshot = `
INSERT INTO github_snapshots (
    login, profile, repositories, contributed, commits, languages, organizations, hotmap,
    synced, update_status, last_update_time
)
VALUES (lower($1), $2, $3, $4, $5, $6, $7, $8, TRUE, 1, now())
ON CONFLICT (login) DO UPDATE
SET profile = EXCLUDED.profile,
    repositories = EXCLUDED.repositories,
    contributed = EXCLUDED.contributed,
    commits = EXCLUDED.commits,
    languages = EXCLUDED.languages,
    organizations = EXCLUDED.organizations,
    hotmap = EXCLUDED.hotmap,
    synced = TRUE,
    update_status = 1,
    last_update_time = now(),
    updated_at = now()`

type SaveSnapshotParams struct {
	Login         string
	Profile       []byte
	Repositories  []byte
	Contributed   []byte
	Commits       []byte
	Languages     []byte
	Organizations []byte
	Hotmap        []byte
}

func (q *Queries) SaveSnapshot(ctx context.Context, arg SaveSnapshotParams) error {
	_, err := q.db.Exec(ctx, saveSnapshot,
		arg.Login,
		arg.Profile,
		arg.Repositories,
		arg.Contributed,
		arg.Commits,
		arg.Languages,
		arg.Organizations,
		arg.Hotmap,
	)
	return err
}

const listStaleSnapshots = `
SELECT login
FROM github_snapshots
WHERE (synced
       AND update_status NOT IN (2, 3)
       AND (last_update_time IS NULL OR last_update_time < $1))
   OR (update_status IN (2, 3) AND updated_at < $2)
ORDER BY last_update_time NULLS FIRST
LIMIT $3`

type ListStaleSnapshotsParams struct {
	Before          time.Time
	AbandonedBefore time.Time
	Limit           int32
}

func (q *Queries) ListStaleSnapshots(ctx context.Context, arg ListStaleSnapshotsParams) ([]string, error) {
	rows, err := q.db.Query(ctx, listStaleSnapshots, arg.Before, arg.AbandonedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, err
		}
		items = append(items, login)
	}
	return items, rows.Err()
}
