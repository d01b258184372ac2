package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brashkie/tt-search/pkg/models"
)

func video(id string, likes, comments, shares, views, createTime int64) *models.VideoRecord {
	return &models.VideoRecord{
		ID:          id,
		Description: "video " + id,
		Author:      "author-" + id,
		CreateTime:  createTime,
		Stats: models.VideoStats{
			Likes: likes, Comments: comments, Shares: shares, Views: views,
		},
	}
}

func TestOverview(t *testing.T) {
	records := []*models.VideoRecord{
		video("a", 100, 10, 5, 1000, 1700000000),
		video("b", 200, 20, 10, 2000, 1700086400),
		video("c", 50, 5, 0, 0, 1700172800), // zero views: excluded from engagement
	}
	records[2].Author = "author-a" // duplicate author

	stats := Overview(records)
	assert.Equal(t, 3, stats.TotalVideos)
	assert.Equal(t, 2, stats.UniqueAuthors)
	assert.Equal(t, int64(350), stats.TotalLikes)
	assert.Equal(t, int64(35), stats.TotalComments)
	assert.Equal(t, int64(15), stats.TotalShares)
	assert.Equal(t, int64(3000), stats.TotalViews)
	assert.InDelta(t, 350.0/3, stats.AvgLikes, 1e-9)

	// (115/1000 + 230/2000) / 2 over the two records with views.
	assert.InDelta(t, (0.115+0.115)/2, stats.AvgEngagement, 1e-9)

	assert.Equal(t, "2023-11-14", stats.DateRange.Start)
	assert.Equal(t, "2023-11-16", stats.DateRange.End)
}

func TestOverviewEmptyDataset(t *testing.T) {
	stats := Overview(nil)
	assert.Zero(t, stats.TotalVideos)
	assert.Zero(t, stats.TotalLikes)
	assert.Zero(t, stats.AvgEngagement)
	assert.Equal(t, EmptyDateRange, stats.DateRange.Start)
	assert.Equal(t, EmptyDateRange, stats.DateRange.End)
}

func TestTopVideos(t *testing.T) {
	records := []*models.VideoRecord{
		video("a", 100, 0, 0, 0, 300),
		video("b", 300, 0, 0, 0, 200),
		video("c", 300, 0, 0, 0, 100), // same likes as b, earlier createTime
		video("d", 50, 0, 0, 0, 400),
	}

	t.Run("sorted descending with createTime tiebreak", func(t *testing.T) {
		top, err := TopVideos(records, MetricLikes, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, "c", top[0].ID, "earlier createTime wins the tie")
		assert.Equal(t, "b", top[1].ID)
		assert.Equal(t, "a", top[2].ID)
	})

	t.Run("limit above dataset size returns everything", func(t *testing.T) {
		top, err := TopVideos(records, MetricLikes, 100)
		require.NoError(t, err)
		assert.Len(t, top, 4)
	})

	t.Run("input order untouched", func(t *testing.T) {
		_, err := TopVideos(records, MetricLikes, 2)
		require.NoError(t, err)
		assert.Equal(t, "a", records[0].ID)
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := TopVideos(records, Metric("followers"), 3)
		assert.Error(t, err)
	})
}

func TestTopAuthors(t *testing.T) {
	records := []*models.VideoRecord{
		video("a", 100, 0, 0, 0, 1),
		video("b", 200, 0, 0, 0, 2),
		video("c", 50, 0, 0, 0, 3),
	}
	records[0].Author = "alice"
	records[1].Author = "alice"
	records[2].Author = "bob"

	ranked, err := TopAuthors(records, MetricLikes, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, AuthorStats{Author: "alice", VideoCount: 2, Total: 300}, ranked[0])
	assert.Equal(t, AuthorStats{Author: "bob", VideoCount: 1, Total: 50}, ranked[1])
}

func TestTopHashtagsCaseInsensitiveMerge(t *testing.T) {
	records := []*models.VideoRecord{
		{ID: "1", Hashtags: []string{"AI", "ai", "ML"}},
		{ID: "2", Hashtags: []string{"AI"}},
	}

	stats := TopHashtags(records, 10)
	require.Len(t, stats, 2)
	assert.Equal(t, HashtagStat{Tag: "AI", Count: 3}, stats[0],
		"case variants merge, most common casing displayed")
	assert.Equal(t, HashtagStat{Tag: "ML", Count: 1}, stats[1])
}

func TestTopHashtagsLimit(t *testing.T) {
	records := []*models.VideoRecord{
		{ID: "1", Hashtags: []string{"a", "b", "c", "a", "b", "a"}},
	}
	stats := TopHashtags(records, 2)
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].Tag)
	assert.Equal(t, 3, stats[0].Count)
	assert.Equal(t, "b", stats[1].Tag)
}

func clusterFixture() []*models.VideoRecord {
	records := make([]*models.VideoRecord, 0, 12)
	for i := 0; i < 5; i++ {
		records = append(records, &models.VideoRecord{
			ID:          fmt.Sprintf("dance-%d", i),
			Description: fmt.Sprintf("amazing dance choreography tutorial %d", i),
			Stats:       models.VideoStats{Likes: 100},
		})
	}
	for i := 0; i < 5; i++ {
		records = append(records, &models.VideoRecord{
			ID:          fmt.Sprintf("cook-%d", i),
			Description: fmt.Sprintf("quick pasta recipe cooking dinner %d", i),
			Stats:       models.VideoStats{Likes: 200},
		})
	}
	records = append(records,
		&models.VideoRecord{ID: "empty-1"},
		&models.VideoRecord{ID: "empty-2", Description: "   "},
	)
	return records
}

func TestClusterContent(t *testing.T) {
	records := clusterFixture()

	result, err := ClusterContent(records, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Clusters)
	require.Len(t, result.Assignments, len(records))

	byID := make(map[string]int)
	for _, a := range result.Assignments {
		byID[a.ID] = a.Cluster
	}

	// Every record lands in exactly one cluster; empty descriptions
	// in the designated one.
	assert.Equal(t, EmptyDescriptionCluster, byID["empty-1"])
	assert.Equal(t, EmptyDescriptionCluster, byID["empty-2"])
	for _, a := range result.Assignments {
		if a.Cluster != EmptyDescriptionCluster {
			assert.Contains(t, []int{0, 1}, a.Cluster)
		}
	}

	// Same input, same seed: stable grouping.
	again, err := ClusterContent(records, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, result.Assignments, again.Assignments)
}

func TestClusterContentHonorsMaxFeatures(t *testing.T) {
	result, err := ClusterContent(clusterFixture(), 2, 2)
	require.NoError(t, err)

	// Top terms come from the vocabulary, which the cap bounds.
	for _, s := range result.Summaries {
		assert.LessOrEqual(t, len(s.TopTerms), 2, "cluster %d", s.Cluster)
	}
}

func TestClusterContentClampsN(t *testing.T) {
	records := []*models.VideoRecord{
		{ID: "1", Description: "only one with text"},
		{ID: "2"},
	}
	result, err := ClusterContent(records, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Clusters, "clamped to eligible record count")
}

func TestClusterContentEmptyDataset(t *testing.T) {
	result, err := ClusterContent(nil, 3, 0)
	require.NoError(t, err)
	assert.Zero(t, result.Clusters)
	assert.Empty(t, result.Assignments)
}

func TestClusterContentInvalidN(t *testing.T) {
	_, err := ClusterContent(clusterFixture(), 0, 0)
	assert.Error(t, err)
}

func TestEngagementScoreBounded(t *testing.T) {
	low := video("low", 0, 0, 0, 1_000_000, 0)
	high := video("high", 50_000, 20_000, 30_000, 100, 0)

	assert.GreaterOrEqual(t, EngagementScore(low), 0.0)
	assert.Less(t, EngagementScore(high), 100.0)
	assert.Greater(t, EngagementScore(high), EngagementScore(low))
}

func TestPredictVirality(t *testing.T) {
	records := make([]*models.VideoRecord, 0, 20)
	for i := 0; i < 18; i++ {
		records = append(records, video(fmt.Sprintf("n%d", i), 10, 1, 0, 10000, int64(i)))
	}
	// Two clear outliers.
	records = append(records,
		video("hot1", 90000, 30000, 40000, 10000, 100),
		video("hot2", 80000, 25000, 35000, 10000, 101),
	)

	result := PredictVirality(records)
	require.Len(t, result.Predictions, 20)

	viral := make(map[string]bool)
	for _, p := range result.Predictions {
		if p.IsViral {
			viral[p.ID] = true
			assert.Greater(t, p.EngagementScore, result.Threshold)
		}
	}
	assert.True(t, viral["hot1"])
	assert.True(t, viral["hot2"])
	assert.Len(t, viral, 2, "top decile of 20 records")

	assert.Equal(t, 2, result.Viral.Count)
	assert.Equal(t, 18, result.NonViral.Count)
	assert.Greater(t, result.Viral.AvgScore, result.NonViral.AvgScore)
}

func TestPredictViralityEmptyDataset(t *testing.T) {
	result := PredictVirality(nil)
	assert.Empty(t, result.Predictions)
	assert.Zero(t, result.Threshold)
}

func TestWriteReport(t *testing.T) {
	records := []*models.VideoRecord{
		video("a", 100, 10, 5, 1000, 1700000000),
		video("b", 200, 20, 10, 2000, 1700086400),
	}
	records[0].Hashtags = []string{"fyp", "dance"}
	records[1].Hashtags = []string{"fyp"}

	out := filepath.Join(t.TempDir(), "report.json")
	path, err := WriteReport(records, out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	var report Report
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 2, report.Overview.TotalVideos)
	require.NotEmpty(t, report.TopVideos)
	assert.Equal(t, "b", report.TopVideos[0].ID)
	require.NotEmpty(t, report.TopHashtags)
	assert.Equal(t, "fyp", report.TopHashtags[0].Tag)
	assert.NotEmpty(t, report.GeneratedAt)
}
