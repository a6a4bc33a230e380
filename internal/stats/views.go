// internal/stats/views.go
package stats

import (
	"github-showcase/internal/model"
)

// ViewCountRow is one aggregated row of page views as stored.
type ViewCountRow struct {
	Date     string
	Platform string
	Browser  string
	Count    int
}

// FoldPageViews groups rows ordered by date into one record per day.
func FoldPageViews(rows []ViewCountRow) []model.ViewRecord {
	var records []model.ViewRecord
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Date]
		if !ok {
			i = len(records)
			index[row.Date] = i
			records = append(records, model.ViewRecord{
				Date:      row.Date,
				PageViews: []model.DailyCount{{Date: row.Date}},
			})
		}
		rec := &records[i]
		rec.PageViews[0].Count += row.Count
		rec.ViewDevices = addDevice(rec.ViewDevices, row.Platform, row.Count)
		rec.ViewSources = addSource(rec.ViewSources, row.Browser, row.Count)
	}
	return records
}

func addDevice(devices []model.ViewDevice, platform string, n int) []model.ViewDevice {
	for i := range devices {
		if devices[i].Platform == platform {
			devices[i].Count += n
			return devices
		}
	}
	return append(devices, model.ViewDevice{Platform: platform, Count: n})
}

func addSource(sources []model.ViewSource, browser string, n int) []model.ViewSource {
	for i := range sources {
		if sources[i].Browser == browser {
			sources[i].Count += n
			return sources
		}
	}
	return append(sources, model.ViewSource{Browser: browser, Count: n})
}

// FlattenViewRecords concatenates the lists of every record, keeping order.
func FlattenViewRecords(records []model.ViewRecord) (pageViews []model.DailyCount, devices []model.ViewDevice, sources []model.ViewSource) {
	pageViews = []model.DailyCount{}
	devices = []model.ViewDevice{}
	sources = []model.ViewSource{}
	for _, r := range records {
		pageViews = append(pageViews, r.PageViews...)
		devices = append(devices, r.ViewDevices...)
		sources = append(sources, r.ViewSources...)
	}
	return pageViews, devices, sources
}
