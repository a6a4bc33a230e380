// internal/stats/policy.go
package stats

import (
	"time"

	"github-showcase/internal/model"
)

// UpdateFinished reports whether no refresh is running for the status code.
// Codes outside the known set count as finished.
func UpdateFinished(status int) bool {
	return status != model.StatusUpdatingRepos && status != model.StatusUpdatingCommits
}

// Policy decides whether a new refresh may be requested.
type Policy struct {
	RefreshInterval time.Duration
	Now             func() time.Time
}

// NewPolicy creates a Policy using the wall clock.
func NewPolicy(refreshInterval time.Duration) Policy {
	return Policy{RefreshInterval: refreshInterval, Now: time.Now}
}

// StatusView is the update status as reported to clients.
type StatusView struct {
	Status         int       `json:"status"`
	LastUpdateTime time.Time `json:"lastUpdateTime"`
	Finished       bool      `json:"finished"`
	Refreshing     bool      `json:"refreshing"`
	RefreshEnable  bool      `json:"refreshEnable"`
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// RefreshEnable is true when no refresh is running and more than
// RefreshInterval has passed since lastUpdate.
func (p Policy) RefreshEnable(status int, lastUpdate time.Time) bool {
	return UpdateFinished(status) && p.now().Sub(lastUpdate) > p.RefreshInterval
}

// Remaining is the time left before a refresh is allowed again.
func (p Policy) Remaining(lastUpdate time.Time) time.Duration {
	left := p.RefreshInterval - p.now().Sub(lastUpdate)
	if left < 0 {
		return 0
	}
	return left
}

func (p Policy) Evaluate(s model.UpdateStatus) StatusView {
	finished := UpdateFinished(s.Status)
	return StatusView{
		Status:         s.Status,
		LastUpdateTime: s.LastUpdateTime,
		Finished:       finished,
		Refreshing:     !finished,
		RefreshEnable:  p.RefreshEnable(s.Status, s.LastUpdateTime),
	}
}
