// internal/database/users.sql.go
package database

import (
	"context"
)

const userColumns = `id, github_id, github_login, name, email, avatar_url, github_share, initialed, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.GithubID,
		&u.GithubLogin,
		&u.Name,
		&u.Email,
		&u.AvatarUrl,
		&u.GithubShare,
		&u.Initialed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const upsertUser = `
INSERT INTO users (github_id, github_login, name, email, avatar_url)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (github_id) DO UPDATE
SET github_login = EXCLUDED.github_login,
    name = EXCLUDED.name,
    email = EXCLUDED.email,
    avatar_url = EXCLUDED.avatar_url,
    updated_at = now()
RETURNING ` + userColumns

type UpsertUserParams struct {
	GithubID    int64
	GithubLogin string
	Name        string
	Email       string
	AvatarUrl   string
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, upsertUser,
		arg.GithubID,
		arg.GithubLogin,
		arg.Name,
		arg.Email,
		arg.AvatarUrl,
	)
	return scanUser(row)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByLogin = `SELECT ` + userColumns + ` FROM users WHERE lower(github_login) = lower($1)`

func (q *Queries) GetUserByLogin(ctx context.Context, githubLogin string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByLogin, githubLogin))
}

const setGithubShare = `UPDATE users SET github_share = $2, updated_at = now() WHERE id = $1`

type SetGithubShareParams struct {
	ID          int64
	GithubShare bool
}

func (q *Queries) SetGithubShare(ctx context.Context, arg SetGithubShareParams) error {
	_, err := q.db.Exec(ctx, setGithubShare, arg.ID, arg.GithubShare)
	return err
}

const setInitialed = `UPDATE users SET initialed = TRUE, updated_at = now() WHERE id = $1 AND NOT initialed`

func (q *Queries) SetInitialed(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, setInitialed, id)
	return err
}
