package testutil

import (
	"context"
	"fmt"

	"github.com/Brashkie/tt-search/pkg/extract"
	"github.com/Brashkie/tt-search/pkg/models"
)

// GenerateVideoRecords produces n valid records with varied counters,
// suitable for store and analytics tests.
func GenerateVideoRecords(n int) []*models.VideoRecord {
	records := make([]*models.VideoRecord, n)
	for i := 0; i < n; i++ {
		records[i] = &models.VideoRecord{
			ID:          fmt.Sprintf("video-%05d", i),
			Description: fmt.Sprintf("test clip %d #testdata", i),
			Author:      fmt.Sprintf("creator%d", i%7),
			AuthorID:    fmt.Sprintf("c-%d", i%7),
			CreateTime:  1700000000 + int64(i)*60,
			Music:       models.MusicInfo{Title: "loop", Author: "producer"},
			Stats: models.VideoStats{
				Likes:    int64(i) * 37,
				Comments: int64(i) * 3,
				Shares:   int64(i),
				Views:    int64(i) * 411,
			},
			Hashtags:  []string{"testdata"},
			Duration:  int64(10 + i%50),
			ScrapedAt: 1710000000,
		}
	}
	return records
}

// FakePageSource is a deterministic in-memory PageFetcher. It serves
// TotalItems raw items split into pages of PageSize, with cursors
// "p1", "p2", ... FailAfter, when positive, makes every fetch past
// that page index return FailErr.
type FakePageSource struct {
	TotalItems int
	PageSize   int
	FailAfter  int
	FailErr    error

	// Calls counts FetchPage invocations.
	Calls int
}

// FetchPage implements extract.PageFetcher.
func (f *FakePageSource) FetchPage(ctx context.Context, query extract.Query, cursor string) (*extract.Page, error) {
	f.Calls++

	page := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "p%d", &page)
	}
	if f.FailAfter > 0 && page >= f.FailAfter {
		return nil, f.FailErr
	}

	start := page * f.PageSize
	end := start + f.PageSize
	if end > f.TotalItems {
		end = f.TotalItems
	}

	p := &extract.Page{}
	for i := start; i < end; i++ {
		p.Items = append(p.Items, extract.RawItem{
			ID:         fmt.Sprintf("item-%05d", i),
			Desc:       fmt.Sprintf("fake item %d #fixture", i),
			CreateTime: 1700000000 + int64(i),
			Author: extract.RawAuthor{
				ID:       fmt.Sprintf("a-%d", i%5),
				UniqueID: fmt.Sprintf("user%d", i%5),
			},
			Stats: extract.RawStats{
				DiggCount:    float64(i * 10),
				CommentCount: float64(i),
				ShareCount:   float64(i / 2),
				PlayCount:    float64(i * 100),
			},
		})
	}
	if end < f.TotalItems {
		p.HasMore = true
		p.NextCursor = fmt.Sprintf("p%d", page+1)
	}
	return p, nil
}
