// internal/stats/helpers.go
package stats

import (
	"cmp"
	"slices"

	"github-showcase/internal/model"
)

// Desc returns a comparator ordering values descending by key.
func Desc[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	}
}

// ByStars orders repositories by star count, most starred first.
var ByStars = Desc(func(r model.Repository) int { return r.StargazersCount })

// ByTotalCommits orders commit records by total commits, busiest first.
var ByTotalCommits = Desc(func(c model.CommitRecord) int { return c.TotalCommits })

func SortRepositories(repos []model.Repository) {
	slices.SortFunc(repos, ByStars)
}

func SortCommits(commits []model.CommitRecord) {
	slices.SortFunc(commits, ByTotalCommits)
}

// OwnRepositories drops forks. The input is left untouched.
func OwnRepositories(repos []model.Repository) []model.Repository {
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			out = append(out, r)
		}
	}
	return out
}

// Summaries projects repositories to their name, language and star count.
func Summaries(repos []model.Repository) []model.RepositorySummary {
	out := make([]model.RepositorySummary, 0, len(repos))
	for _, r := range repos {
		out = append(out, model.RepositorySummary{
			Name:            r.Name,
			Language:        r.Language,
			StargazersCount: r.StargazersCount,
		})
	}
	return out
}

// CombineReposCommits folds the weekly activity of every repository into a
// single series. Weeks with the same timestamp are summed.
func CombineReposCommits(records []model.CommitRecord) model.CommitsSummary {
	summary := model.CommitsSummary{Commits: []model.WeeklyCommits{}}
	byWeek := make(map[int64]int)

	for _, record := range records {
		for _, week := range record.Commits {
			summary.Total += week.Total
			for day, count := range week.Days {
				summary.DailyCommits[day] += count
			}

			idx, ok := byWeek[week.Week]
			if !ok {
				byWeek[week.Week] = len(summary.Commits)
				summary.Commits = append(summary.Commits, week)
				continue
			}
			target := &summary.Commits[idx]
			target.Total += week.Total
			for day, count := range week.Days {
				target.Days[day] += count
			}
		}
	}

	slices.SortFunc(summary.Commits, func(a, b model.WeeklyCommits) int {
		return cmp.Compare(a.Week, b.Week)
	})
	return summary
}
