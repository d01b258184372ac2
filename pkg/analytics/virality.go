package analytics

import (
	"math"
	"sort"

	"github.com/Brashkie/tt-search/pkg/metrics"
	"github.com/Brashkie/tt-search/pkg/models"
)

// EngagementRate is the weighted raw engagement of one record:
// comments count double and shares triple relative to likes, and the
// sum is normalized by views so small accounts compare fairly with
// large ones.
func EngagementRate(r *models.VideoRecord) float64 {
	weighted := float64(r.Stats.Likes) +
		2*float64(r.Stats.Comments) +
		3*float64(r.Stats.Shares)
	return weighted / float64(r.Stats.Views+1)
}

// EngagementScore maps the raw rate onto a bounded 0–100 scale via
// 100·r/(1+r), monotonic in the rate.
func EngagementScore(r *models.VideoRecord) float64 {
	rate := EngagementRate(r)
	return 100 * rate / (1 + rate)
}

// Prediction classifies one record.
type Prediction struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	EngagementScore float64 `json:"engagementScore"`
	IsViral         bool    `json:"isViral"`
}

// FeatureAverages summarizes one class of records.
type FeatureAverages struct {
	Count             int     `json:"count"`
	AvgScore          float64 `json:"avgScore"`
	AvgDescriptionLen float64 `json:"avgDescriptionLen"`
	AvgHashtags       float64 `json:"avgHashtags"`
	AvgLikes          float64 `json:"avgLikes"`
}

// ViralityResult holds per-record classifications plus the viral vs
// non-viral feature comparison.
type ViralityResult struct {
	// Threshold is the dataset's 90th-percentile engagement score;
	// a record is viral when its score is strictly above it. The
	// percentile is dataset-relative so classification stays
	// meaningful at any dataset size.
	Threshold   float64         `json:"threshold"`
	Predictions []Prediction    `json:"predictions"`
	Viral       FeatureAverages `json:"viral"`
	NonViral    FeatureAverages `json:"nonViral"`
}

// PredictVirality scores every record and labels the top decile as
// viral. An empty dataset returns an empty result, not an error.
func PredictVirality(records []*models.VideoRecord) *ViralityResult {
	timer := metrics.NewTimer("predict")
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("predict").
			Observe(timer.Stop().Seconds())
	}()

	result := &ViralityResult{Predictions: []Prediction{}}
	if len(records) == 0 {
		return result
	}

	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = EngagementScore(r)
	}
	result.Threshold = percentile(scores, 0.9)

	var viral, rest accumulator
	result.Predictions = make([]Prediction, len(records))
	for i, r := range records {
		isViral := scores[i] > result.Threshold
		result.Predictions[i] = Prediction{
			ID:              r.ID,
			Description:     r.Description,
			EngagementScore: scores[i],
			IsViral:         isViral,
		}
		if isViral {
			viral.add(r, scores[i])
		} else {
			rest.add(r, scores[i])
		}
	}
	result.Viral = viral.averages()
	result.NonViral = rest.averages()
	return result
}

// percentile computes the q-quantile by linear interpolation between
// order statistics.
func percentile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

type accumulator struct {
	n        int
	score    float64
	descLen  int
	hashtags int
	likes    int64
}

func (a *accumulator) add(r *models.VideoRecord, score float64) {
	a.n++
	a.score += score
	a.descLen += len([]rune(r.Description))
	a.hashtags += len(r.Hashtags)
	a.likes += r.Stats.Likes
}

func (a *accumulator) averages() FeatureAverages {
	if a.n == 0 {
		return FeatureAverages{}
	}
	n := float64(a.n)
	return FeatureAverages{
		Count:             a.n,
		AvgScore:          a.score / n,
		AvgDescriptionLen: float64(a.descLen) / n,
		AvgHashtags:       float64(a.hashtags) / n,
		AvgLikes:          float64(a.likes) / n,
	}
}
