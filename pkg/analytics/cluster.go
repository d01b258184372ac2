package analytics

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Brashkie/tt-search/pkg/metrics"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// EmptyDescriptionCluster is the designated cluster for records whose
// description carries no text; they are never dropped and never mixed
// into the text-derived clusters.
const EmptyDescriptionCluster = -1

// ClusterAssignment places one record in a cluster.
type ClusterAssignment struct {
	ID      string `json:"id"`
	Cluster int    `json:"cluster"`
}

// ClusterSummary describes one resulting cluster.
type ClusterSummary struct {
	Cluster  int      `json:"cluster"`
	Size     int      `json:"size"`
	AvgLikes float64  `json:"avgLikes"`
	TopTerms []string `json:"topTerms,omitempty"`
}

// ClusterResult is the outcome of content clustering.
type ClusterResult struct {
	// Clusters actually produced; at most the requested count, fewer
	// when the request exceeded the eligible record count.
	Clusters    int                 `json:"clusters"`
	Assignments []ClusterAssignment `json:"assignments"`
	Summaries   []ClusterSummary    `json:"summaries"`
}

// ClusterContent groups records by TF-IDF similarity of their
// descriptions using centroid-based clustering. maxFeatures caps the
// vocabulary by document frequency; zero or negative applies the
// default. Requesting more clusters than there are records with text
// clamps the count and logs a warning rather than failing. Repeated
// runs over the same input produce the same grouping (fixed seed,
// bounded iterations).
func ClusterContent(records []*models.VideoRecord, nClusters, maxFeatures int) (*ClusterResult, error) {
	timer := metrics.NewTimer("cluster")
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("cluster").
			Observe(timer.Stop().Seconds())
	}()

	if nClusters <= 0 {
		return nil, tterrors.New(tterrors.ErrorTypeAnalytics, "cluster count must be positive")
	}
	result := &ClusterResult{}
	if len(records) == 0 {
		return result, nil
	}

	eligible := make([]int, 0, len(records))
	docs := make([]string, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Description) == "" {
			continue
		}
		eligible = append(eligible, i)
		docs = append(docs, r.Description)
	}

	k := nClusters
	if k > len(eligible) {
		warnf("clamping cluster count to eligible records",
			zap.Int("requested", nClusters),
			zap.Int("eligible", len(eligible)))
		k = len(eligible)
	}

	assignments := make([]int, len(records))
	for i := range assignments {
		assignments[i] = EmptyDescriptionCluster
	}

	var vocab []string
	var vecs []sparseVec
	if k > 0 {
		vecs, vocab = vectorize(docs, maxFeatures)
		labels := kmeans(vecs, k, len(vocab))
		for j, recIdx := range eligible {
			assignments[recIdx] = labels[j]
		}
	}

	result.Clusters = k
	result.Assignments = make([]ClusterAssignment, len(records))
	for i, r := range records {
		result.Assignments[i] = ClusterAssignment{ID: r.ID, Cluster: assignments[i]}
	}
	result.Summaries = summarize(records, assignments, vecs, eligible, vocab, k)
	return result, nil
}

// summarize builds per-cluster sizes, average likes, and top terms.
func summarize(records []*models.VideoRecord, assignments []int, vecs []sparseVec, eligible []int, vocab []string, k int) []ClusterSummary {
	ids := make([]int, 0, k+1)
	for c := 0; c < k; c++ {
		ids = append(ids, c)
	}
	hasEmpty := false
	for _, a := range assignments {
		if a == EmptyDescriptionCluster {
			hasEmpty = true
			break
		}
	}
	if hasEmpty {
		ids = append(ids, EmptyDescriptionCluster)
	}

	vecByRecord := make(map[int]sparseVec, len(eligible))
	for j, recIdx := range eligible {
		vecByRecord[recIdx] = vecs[j]
	}

	summaries := make([]ClusterSummary, 0, len(ids))
	for _, c := range ids {
		s := ClusterSummary{Cluster: c}
		var likes int64
		termWeight := make([]float64, len(vocab))
		for i, a := range assignments {
			if a != c {
				continue
			}
			s.Size++
			likes += records[i].Stats.Likes
			if v, ok := vecByRecord[i]; ok {
				for idx, x := range v {
					termWeight[idx] += x
				}
			}
		}
		if s.Size > 0 {
			s.AvgLikes = float64(likes) / float64(s.Size)
		}
		if c != EmptyDescriptionCluster {
			s.TopTerms = topTerms(termWeight, vocab, 5)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func topTerms(weights []float64, vocab []string, n int) []string {
	idx := make([]int, len(vocab))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return weights[idx[a]] > weights[idx[b]]
	})
	out := make([]string, 0, n)
	for _, i := range idx {
		if len(out) == n || weights[i] == 0 {
			break
		}
		out = append(out, vocab[i])
	}
	return out
}
