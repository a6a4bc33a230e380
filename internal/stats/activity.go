// internal/stats/activity.go
package stats

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github-showcase/internal/model"
)

const (
	hotmapLevels = 4
	dayLayout    = "2006-01-02"
)

// LanguageShares sums per-repository language bytes and orders the result by
// size, largest first.
func LanguageShares(perRepo []map[string]int) []model.LanguageStat {
	totals := make(map[string]int)
	var sum int
	for _, langs := range perRepo {
		for name, bytes := range langs {
			totals[name] += bytes
			sum += bytes
		}
	}

	out := make([]model.LanguageStat, 0, len(totals))
	for name, bytes := range totals {
		stat := model.LanguageStat{Name: name, Bytes: bytes}
		if sum > 0 {
			stat.Percentage = math.Round(float64(bytes)/float64(sum)*10000) / 100
		}
		out = append(out, stat)
	}
	slices.SortFunc(out, func(a, b model.LanguageStat) int {
		if c := cmp.Compare(b.Bytes, a.Bytes); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// BuildHotmap counts events per UTC day over the span days ending at end.
// Events outside the window are ignored.
func BuildHotmap(events []time.Time, end time.Time, span int) model.Hotmap {
	end = end.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(span - 1))

	counts := make(map[string]int)
	for _, t := range events {
		day := t.UTC().Truncate(24 * time.Hour)
		if day.Before(start) || day.After(end) {
			continue
		}
		counts[day.Format(dayLayout)]++
	}

	hm := model.Hotmap{
		Start: start.Format(dayLayout),
		End:   end.Format(dayLayout),
		Datas: make([]model.HotmapDay, 0, span),
	}
	peak := 0
	for _, n := range counts {
		peak = max(peak, n)
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		n := counts[key]
		hm.Total += n
		hm.Datas = append(hm.Datas, model.HotmapDay{Date: key, Count: n, Level: level(n, peak)})
	}
	return hm
}

func level(n, peak int) int {
	if n == 0 || peak == 0 {
		return 0
	}
	return min(hotmapLevels, max(1, int(math.Ceil(float64(n)*hotmapLevels/float64(peak)))))
}
