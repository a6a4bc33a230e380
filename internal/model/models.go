// internal/model/models.go
package model

import (
	"encoding/json"
	"time"
)

// Update status codes reported for a login's background refresh.
const (
	StatusUnknown         = 0
	StatusSuccess         = 1
	StatusUpdatingRepos   = 2
	StatusUpdatingCommits = 3
	StatusFailed          = 4
)

// Record types for page-view analytics.
const (
	RecordGithub = "github"
	RecordResume = "resume"
)

// GitHubUser is the public profile of a GitHub account.
type GitHubUser struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio"`
	Company     string    `json:"company"`
	Blog        string    `json:"blog"`
	Location    string    `json:"location"`
	Email       string    `json:"email"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository represents the metadata of a GitHub repository.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           string    `json:"owner"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	HTMLURL         string    `json:"html_url"`
	Fork            bool      `json:"fork"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	WatchersCount   int       `json:"watchers_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// RepositorySummary is the projection returned for the session user's own repositories.
type RepositorySummary struct {
	Name            string `json:"name"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
}

// WeeklyCommits is one week of commit activity. Days starts on Sunday.
type WeeklyCommits struct {
	Week  int64  `json:"week"`
	Total int    `json:"total"`
	Days  [7]int `json:"days"`
}

// CommitRecord is the commit activity of a single repository.
type CommitRecord struct {
	Name         string          `json:"name"`
	Language     string          `json:"language"`
	TotalCommits int             `json:"totalCommits"`
	Commits      []WeeklyCommits `json:"commits"`
}

// CommitsSummary folds the activity of every repository into one series.
type CommitsSummary struct {
	Total        int             `json:"total"`
	DailyCommits [7]int          `json:"dailyCommits"`
	Commits      []WeeklyCommits `json:"commits"`
}

// LanguageStat is the share of code written in one language.
type LanguageStat struct {
	Name       string  `json:"name"`
	Bytes      int     `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

type Organization struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	AvatarURL   string `json:"avatar_url"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
}

// HotmapDay is the activity count of a single calendar day.
type HotmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Hotmap is a day-by-day activity calendar built from public events.
type Hotmap struct {
	Start string      `json:"start"`
	End   string      `json:"end"`
	Total int         `json:"total"`
	Datas []HotmapDay `json:"datas"`
}

// UpdateStatus is the refresh state of a login's stored GitHub data.
type UpdateStatus struct {
	Status         int       `json:"status"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
}

// Snapshot is everything stored about a login after a sync.
type Snapshot struct {
	Login         string         `json:"login"`
	User          GitHubUser     `json:"user"`
	Repositories  []Repository   `json:"repositories"`
	Contributed   []Repository   `json:"contributed"`
	Commits       []CommitRecord `json:"commits"`
	Languages     []LanguageStat `json:"languages"`
	Organizations []Organization `json:"organizations"`
	Hotmap        Hotmap         `json:"hotmap"`
	UpdateStatus
}

// User is an account of this application.
type User struct {
	ID          int64     `json:"id"`
	GithubID    int64     `json:"githubId"`
	GithubLogin string    `json:"githubLogin"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatarUrl"`
	GithubShare bool      `json:"githubShare"`
	Initialed   bool      `json:"initialed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Resume is a user's resume and its sharing settings.
type Resume struct {
	UserID         int64           `json:"userId"`
	Hash           string          `json:"hash"`
	Content        json.RawMessage `json:"resume"`
	OpenShare      bool            `json:"openShare"`
	UseGithub      bool            `json:"useGithub"`
	Template       string          `json:"template"`
	HireAvailable  bool            `json:"hireAvailable"`
	GithubSections json.RawMessage `json:"githubSections"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PageView is a single recorded visit of a shared page.
type PageView struct {
	Login    string
	Type     string
	Platform string
	Browser  string
	Device   string
}

// DailyCount is the number of page views on one day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ViewDevice counts visits coming from one platform.
type ViewDevice struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// ViewSource counts visits coming from one browser.
type ViewSource struct {
	Browser string `json:"browser"`
	Count   int    `json:"count"`
}

// ViewRecord aggregates the visits of a login's page on one day.
type ViewRecord struct {
	Date        string       `json:"date"`
	PageViews   []DailyCount `json:"pageViews"`
	ViewDevices []ViewDevice `json:"viewDevices"`
	ViewSources []ViewSource `json:"viewSources"`
}
