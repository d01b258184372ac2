// Package analytics computes descriptive statistics, rankings,
// hashtag frequencies, content clusters, and virality classification
// over extracted video datasets. Every operation is a pure read;
// derived figures like engagement are computed here and never stored.
package analytics

import (
	"time"

	"go.uber.org/zap"

	"github.com/Brashkie/tt-search/pkg/logger"
	"github.com/Brashkie/tt-search/pkg/metrics"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// Metric names a rankable video counter.
type Metric string

const (
	MetricLikes    Metric = "likes"
	MetricComments Metric = "comments"
	MetricShares   Metric = "shares"
	MetricViews    Metric = "views"
)

// metricValue extracts the chosen counter from a record.
func metricValue(r *models.VideoRecord, m Metric) (int64, error) {
	switch m {
	case MetricLikes:
		return r.Stats.Likes, nil
	case MetricComments:
		return r.Stats.Comments, nil
	case MetricShares:
		return r.Stats.Shares, nil
	case MetricViews:
		return r.Stats.Views, nil
	default:
		return 0, tterrors.Newf(tterrors.ErrorTypeAnalytics, "unknown metric %q", m)
	}
}

// EmptyDateRange marks the date range of a dataset with no records.
const EmptyDateRange = "empty"

// DateRange is the inclusive creation-date span of a dataset.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// OverviewStats summarizes a dataset.
type OverviewStats struct {
	TotalVideos   int   `json:"totalVideos"`
	UniqueAuthors int   `json:"uniqueAuthors"`
	TotalLikes    int64 `json:"totalLikes"`
	TotalComments int64 `json:"totalComments"`
	TotalShares   int64 `json:"totalShares"`
	TotalViews    int64 `json:"totalViews"`

	AvgLikes    float64 `json:"avgLikes"`
	AvgComments float64 `json:"avgComments"`
	AvgShares   float64 `json:"avgShares"`
	AvgViews    float64 `json:"avgViews"`

	// AvgEngagement is the mean of (likes+comments+shares)/max(views,1)
	// across records with at least one view.
	AvgEngagement float64 `json:"avgEngagement"`

	DateRange DateRange `json:"dateRange"`
}

// Overview computes dataset-level statistics. An empty dataset yields
// zero counts and the explicit empty date-range marker, never a
// division failure.
func Overview(records []*models.VideoRecord) *OverviewStats {
	timer := metrics.NewTimer("overview")
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("overview").
			Observe(timer.Stop().Seconds())
	}()

	stats := &OverviewStats{
		DateRange: DateRange{Start: EmptyDateRange, End: EmptyDateRange},
	}
	if len(records) == 0 {
		return stats
	}

	authors := make(map[string]struct{})
	var engagementSum float64
	var engagementN int
	minCreate, maxCreate := records[0].CreateTime, records[0].CreateTime

	for _, r := range records {
		stats.TotalLikes += r.Stats.Likes
		stats.TotalComments += r.Stats.Comments
		stats.TotalShares += r.Stats.Shares
		stats.TotalViews += r.Stats.Views
		if r.Author != "" {
			authors[r.Author] = struct{}{}
		}
		if r.Stats.Views > 0 {
			engagementSum += float64(r.Stats.Likes+r.Stats.Comments+r.Stats.Shares) /
				float64(r.Stats.Views)
			engagementN++
		}
		if r.CreateTime < minCreate {
			minCreate = r.CreateTime
		}
		if r.CreateTime > maxCreate {
			maxCreate = r.CreateTime
		}
	}

	n := float64(len(records))
	stats.TotalVideos = len(records)
	stats.UniqueAuthors = len(authors)
	stats.AvgLikes = float64(stats.TotalLikes) / n
	stats.AvgComments = float64(stats.TotalComments) / n
	stats.AvgShares = float64(stats.TotalShares) / n
	stats.AvgViews = float64(stats.TotalViews) / n
	if engagementN > 0 {
		stats.AvgEngagement = engagementSum / float64(engagementN)
	}
	stats.DateRange = DateRange{
		Start: time.Unix(minCreate, 0).UTC().Format("2006-01-02"),
		End:   time.Unix(maxCreate, 0).UTC().Format("2006-01-02"),
	}
	return stats
}

// TopVideos ranks records by the chosen metric, descending, with ties
// broken by earlier creation time. A limit at or above the dataset
// size returns the whole dataset sorted.
func TopVideos(records []*models.VideoRecord, metric Metric, limit int) ([]*models.VideoRecord, error) {
	if _, err := metricValue(&models.VideoRecord{}, metric); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, tterrors.New(tterrors.ErrorTypeAnalytics, "negative limit")
	}

	sorted := make([]*models.VideoRecord, len(records))
	copy(sorted, records)
	sortByMetric(sorted, metric)

	if limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// AuthorStats aggregates one author's videos.
type AuthorStats struct {
	Author     string `json:"author"`
	VideoCount int    `json:"videoCount"`
	Total      int64  `json:"total"`
}

// TopAuthors ranks authors by the summed metric across their videos.
func TopAuthors(records []*models.VideoRecord, metric Metric, limit int) ([]AuthorStats, error) {
	if _, err := metricValue(&models.VideoRecord{}, metric); err != nil {
		return nil, err
	}

	byAuthor := make(map[string]*AuthorStats)
	order := make([]string, 0)
	for _, r := range records {
		s, ok := byAuthor[r.Author]
		if !ok {
			s = &AuthorStats{Author: r.Author}
			byAuthor[r.Author] = s
			order = append(order, r.Author)
		}
		v, _ := metricValue(r, metric)
		s.Total += v
		s.VideoCount++
	}

	ranked := make([]AuthorStats, 0, len(order))
	for _, a := range order {
		ranked = append(ranked, *byAuthor[a])
	}
	sortAuthors(ranked)

	if limit >= 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func warnf(msg string, fields ...zap.Field) {
	logger.Get().Warn(msg, fields...)
}
