package analytics

import (
	"sort"

	"github.com/Brashkie/tt-search/pkg/models"
)

// sortByMetric orders records by metric descending; equal metric
// values order by earlier CreateTime so rankings are deterministic.
func sortByMetric(records []*models.VideoRecord, metric Metric) {
	sort.SliceStable(records, func(i, j int) bool {
		vi, _ := metricValue(records[i], metric)
		vj, _ := metricValue(records[j], metric)
		if vi != vj {
			return vi > vj
		}
		return records[i].CreateTime < records[j].CreateTime
	})
}

// sortAuthors orders author aggregates by total descending, then by
// video count, then name for a stable ranking.
func sortAuthors(stats []AuthorStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		if stats[i].VideoCount != stats[j].VideoCount {
			return stats[i].VideoCount > stats[j].VideoCount
		}
		return stats[i].Author < stats[j].Author
	})
}
