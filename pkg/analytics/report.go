package analytics

import (
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// Report is the combined analytics document.
type Report struct {
	GeneratedAt string                `json:"generatedAt"`
	Overview    *OverviewStats        `json:"overview"`
	TopVideos   []*models.VideoRecord `json:"topVideos"`
	TopAuthors  []AuthorStats         `json:"topAuthors"`
	TopHashtags []HashtagStat         `json:"topHashtags"`
}

// BuildReport assembles overview, rankings, and hashtag frequencies
// into one document.
func BuildReport(records []*models.VideoRecord) (*Report, error) {
	topVideos, err := TopVideos(records, MetricLikes, 10)
	if err != nil {
		return nil, err
	}
	topAuthors, err := TopAuthors(records, MetricLikes, 10)
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Overview:    Overview(records),
		TopVideos:   topVideos,
		TopAuthors:  topAuthors,
		TopHashtags: TopHashtags(records, 20),
	}, nil
}

// WriteReport builds the report and writes it as indented JSON.
func WriteReport(records []*models.VideoRecord, outPath string) (string, error) {
	report, err := BuildReport(records)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", tterrors.Wrap(err, tterrors.ErrorTypeAnalytics, "encoding report")
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing report")
	}
	return outPath, nil
}
