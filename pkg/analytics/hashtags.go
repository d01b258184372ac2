package analytics

import (
	"sort"
	"strings"

	"github.com/Brashkie/tt-search/pkg/models"
)

// HashtagStat is one hashtag's occurrence count. Tag carries the most
// common casing observed in the dataset.
type HashtagStat struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopHashtags flattens hashtags across all records and returns the
// limit most frequent. Tags differing only by case merge into one
// entry displayed with the casing that occurred most often; casing
// ties resolve to the form seen first.
func TopHashtags(records []*models.VideoRecord, limit int) []HashtagStat {
	type casing struct {
		count int
		first int
	}
	counts := make(map[string]int)
	casings := make(map[string]map[string]*casing)
	firstSeen := make(map[string]int)
	seq := 0

	for _, r := range records {
		for _, tag := range r.Hashtags {
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			counts[key]++
			if _, ok := firstSeen[key]; !ok {
				firstSeen[key] = seq
				casings[key] = make(map[string]*casing)
			}
			c, ok := casings[key][tag]
			if !ok {
				c = &casing{first: seq}
				casings[key][tag] = c
			}
			c.count++
			seq++
		}
	}

	stats := make([]HashtagStat, 0, len(counts))
	for key, count := range counts {
		var display string
		var best *casing
		for form, c := range casings[key] {
			if best == nil || c.count > best.count ||
				(c.count == best.count && c.first < best.first) {
				best = c
				display = form
			}
		}
		stats = append(stats, HashtagStat{Tag: display, Count: count})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return firstSeen[strings.ToLower(stats[i].Tag)] <
			firstSeen[strings.ToLower(stats[j].Tag)]
	})

	if limit >= 0 && limit < len(stats) {
		stats = stats[:limit]
	}
	return stats
}
