// internal/database/resumes.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const resumeColumns = `user_id, hash, content, open_share, use_github, template, hire_available, github_sections, updated_at`

func scanResume(row interface{ Scan(...interface{}) error }) (Resume, error) {
	var r Resume
	err := row.Scan(
		&r.UserID,
		&r.Hash,
		&r.Content,
		&r.OpenShare,
		&r.UseGithub,
		&r.Template,
		&r.HireAvailable,
		&r.GithubSections,
		&r.UpdatedAt,
	)
	return r, err
}

const getResumeByUserID = `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = $1`

func (q *Queries) GetResumeByUserID(ctx context.Context, userID int64) (Resume, error) {
	return scanResume(q.db.QueryRow(ctx, getResumeByUserID, userID))
}

const getResumeByHash = `SELECT ` + resumeColumns + ` FROM resumes WHERE hash = $1`

func (q *Queries) GetResumeByHash(ctx context.Context, hash string) (Resume, error) {
	return scanResume(q.db.QueryRow(ctx, getResumeByHash, hash))
}

// The hash of an existing resume never changes.
const upsertResumeContent = `
INSERT INTO resumes (user_id, hash, content)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET content = EXCLUDED.content,
    updated_at = now()
RETURNING ` + resumeColumns

type UpsertResumeContentParams struct {
	UserID  int64
	Hash    string
	Content []byte
}

func (q *Queries) UpsertResumeContent(ctx context.Context, arg UpsertResumeContentParams) (Resume, error) {
	return scanResume(q.db.QueryRow(ctx, upsertResumeContent, arg.UserID, arg.Hash, arg.Content))
}

// NULL arguments leave the column unchanged.
const updateResumeSettings = `
UPDATE resumes
SET open_share = COALESCE($2, open_share),
    use_github = COALESCE($3, use_github),
    template = COALESCE($4, template),
    hire_available = COALESCE($5, hire_available),
    github_sections = COALESCE($6, github_sections),
    updated_at = now()
WHERE user_id = $1
RETURNING ` + resumeColumns

type UpdateResumeSettingsParams struct {
	UserID         int64
	OpenShare      pgtype.Bool
	UseGithub      pgtype.Bool
	Template       pgtype.Text
	HireAvailable  pgtype.Bool
	GithubSections []byte
}

func (q *Queries) UpdateResumeSettings(ctx context.Context, arg UpdateResumeSettingsParams) (Resume, error) {
	row := q.db.QueryRow(ctx, updateResumeSettings,
		arg.UserID,
		arg.OpenShare,
		arg.UseGithub,
		arg.Template,
		arg.HireAvailable,
		arg.GithubSections,
	)
	return scanResume(row)
}
