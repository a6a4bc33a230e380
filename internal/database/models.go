// internal/database/models.go
package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID          int64
	GithubID    int64
	GithubLogin string
	Name        string
	Email       string
	AvatarUrl   string
	GithubShare bool
	Initialed   bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type GithubSnapshot struct {
	Login          string
	Profile        []byte
	Repositories   []byte
	Contributed    []byte
	Commits        []byte
	Languages      []byte
	Organizations  []byte
	Hotmap         []byte
	Synced         bool
	UpdateStatus   int16
	LastUpdateTime pgtype.Timestamptz
}

type Resume struct {
	UserID         int64
	Hash           string
	Content        []byte
	OpenShare      bool
	UseGithub      bool
	Template       string
	HireAvailable  bool
	GithubSections []byte
	UpdatedAt      pgtype.Timestamptz
}
