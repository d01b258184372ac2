package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brashkie/tt-search/pkg/clients"
)

func fakeItem(id string, views int64) RawItem {
	return RawItem{
		ID:         id,
		Desc:       "clip " + id + " #test",
		CreateTime: 1700000000,
		Author:     RawAuthor{ID: "a-" + id, UniqueID: "author" + id},
		Stats: RawStats{
			DiggCount:    float64(10),
			CommentCount: float64(2),
			ShareCount:   float64(1),
			PlayCount:    float64(views),
		},
		Music: RawMusic{Title: "song", AuthorName: "artist"},
		Video: RawVideoMeta{Duration: 15, Cover: "c", PlayAddr: "v"},
	}
}

// pagedFetcher serves a fixed sequence of pages.
type pagedFetcher struct {
	pages []*Page
	calls int
}

func (f *pagedFetcher) FetchPage(ctx context.Context, query Query, cursor string) (*Page, error) {
	if f.calls >= len(f.pages) {
		return &Page{}, nil
	}
	p := f.pages[f.calls]
	f.calls++
	return p, nil
}

func fastConfig() Config {
	return Config{
		RequestsPerSecond: 1000,
		Burst:             100,
		Retry:             NoRetryPolicy(),
	}
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"valid search", Query{Type: QueryTypeSearch, Keyword: "cats", Limit: 10}, false},
		{"valid user", Query{Type: QueryTypeUser, Username: "bob", Limit: 5}, false},
		{"valid trending", Query{Type: QueryTypeTrending, Limit: 20}, false},
		{"missing keyword", Query{Type: QueryTypeSearch, Limit: 10}, true},
		{"missing username", Query{Type: QueryTypeUser, Limit: 10}, true},
		{"zero limit", Query{Type: QueryTypeSearch, Keyword: "x"}, true},
		{"unknown type", Query{Type: "feed", Limit: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunCollectsUpToLimit(t *testing.T) {
	var pages []*Page
	for p := 0; p < 3; p++ {
		page := &Page{HasMore: true, NextCursor: fmt.Sprintf("c%d", p+1)}
		for i := 0; i < 20; i++ {
			page.Items = append(page.Items, fakeItem(fmt.Sprintf("v%d-%d", p, i), 1000))
		}
		pages = append(pages, page)
	}
	fetcher := &pagedFetcher{pages: pages}

	o := NewOrchestrator(fetcher, fastConfig())
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   50,
	})

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Len(t, result.Items, 50)
	assert.Equal(t, 3, result.Meta.PagesFetched)
	assert.Equal(t, 0, result.Meta.Duplicates)
}

func TestRunDeduplicatesAcrossPages(t *testing.T) {
	fetcher := &pagedFetcher{pages: []*Page{
		{
			Items:      []RawItem{fakeItem("a", 100), fakeItem("b", 200)},
			HasMore:    true,
			NextCursor: "c1",
		},
		{
			// "b" repeats, plus a within-page repeat of "c"
			Items: []RawItem{fakeItem("b", 200), fakeItem("c", 300), fakeItem("c", 300)},
		},
	}}

	o := NewOrchestrator(fetcher, fastConfig())
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	require.NoError(t, result.Error)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "a", result.Items[0].ID)
	assert.Equal(t, "b", result.Items[1].ID)
	assert.Equal(t, "c", result.Items[2].ID)
	assert.Equal(t, 2, result.Meta.Duplicates)
}

func TestRunDropsInvalidItems(t *testing.T) {
	bad := fakeItem("", 100) // empty ID fails validation
	worse := fakeItem("x", 100)
	worse.Stats.PlayCount = "not-a-number"

	fetcher := &pagedFetcher{pages: []*Page{
		{Items: []RawItem{fakeItem("ok", 500), bad, worse}},
	}}

	o := NewOrchestrator(fetcher, fastConfig())
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	require.NoError(t, result.Error)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, "ok", result.Items[0].ID)
	assert.Equal(t, 2, result.Meta.Dropped)
}

func TestRunPartialSuccessOnLaterFailure(t *testing.T) {
	calls := 0
	fetcher := PageFetcherFunc(func(ctx context.Context, q Query, cursor string) (*Page, error) {
		calls++
		if calls == 1 {
			return &Page{
				Items:      []RawItem{fakeItem("a", 100), fakeItem("b", 200)},
				HasMore:    true,
				NextCursor: "c1",
			}, nil
		}
		return nil, errors.New("session lost")
	})

	o := NewOrchestrator(fetcher, fastConfig())
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	assert.Error(t, result.Error)
	assert.True(t, result.Success, "collected records mean partial success")
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 1, result.Meta.PagesFetched)
}

func TestRunTotalFailure(t *testing.T) {
	fetcher := PageFetcherFunc(func(ctx context.Context, q Query, cursor string) (*Page, error) {
		return nil, errors.New("blocked at the door")
	})

	o := NewOrchestrator(fetcher, fastConfig())
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	assert.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Empty(t, result.Items)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	calls := 0
	fetcher := PageFetcherFunc(func(ctx context.Context, q Query, cursor string) (*Page, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("flaky")
		}
		return &Page{Items: []RawItem{fakeItem("a", 100)}}, nil
	})

	cfg := fastConfig()
	cfg.Retry = &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
	o := NewOrchestrator(fetcher, cfg)
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	require.NoError(t, result.Error)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 3, calls)
}

func TestRunStopsWhenSourceExhausted(t *testing.T) {
	fetcher := &pagedFetcher{pages: []*Page{
		{Items: []RawItem{fakeItem("a", 100)}, HasMore: false},
	}}

	o := NewOrchestrator(fetcher, fastConfig())
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   100,
	})

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Meta.PagesFetched)
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := PageFetcherFunc(func(ctx context.Context, q Query, cursor string) (*Page, error) {
		cancel() // cancel after the first page is served
		return &Page{
			Items:      []RawItem{fakeItem("a", 100)},
			HasMore:    true,
			NextCursor: "c1",
		}, nil
	})

	cfg := fastConfig()
	cfg.RequestsPerSecond = 0.001 // second wait would block for a long time
	cfg.Burst = 1
	o := NewOrchestrator(fetcher, cfg)
	result := o.Run(ctx, Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	assert.Error(t, result.Error)
	assert.True(t, result.Success, "records collected before cancellation survive")
	assert.Len(t, result.Items, 1)
}

func TestRunInvalidQuery(t *testing.T) {
	fetcher := &pagedFetcher{}
	o := NewOrchestrator(fetcher, fastConfig())

	result := o.Run(context.Background(), Query{Type: QueryTypeSearch, Limit: 10})
	assert.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Zero(t, result.Meta.PagesFetched)
	assert.Equal(t, 0, fetcher.calls)
}

func TestRunBreakerAbortsRun(t *testing.T) {
	fetcher := PageFetcherFunc(func(ctx context.Context, q Query, cursor string) (*Page, error) {
		return nil, errors.New("captcha wall")
	})

	cfg := fastConfig()
	cfg.Breaker = &clients.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}
	o := NewOrchestrator(fetcher, cfg)

	// First run exhausts retries and records failures.
	first := o.Run(context.Background(), Query{Type: QueryTypeSearch, Keyword: "x", Limit: 10})
	assert.Error(t, first.Error)

	// Breaker should now be open: the next run fails fast without fetching.
	second := o.Run(context.Background(), Query{Type: QueryTypeSearch, Keyword: "x", Limit: 10})
	assert.Error(t, second.Error)
	assert.Zero(t, second.Meta.PagesFetched)
}

func TestRunSurvivesIsolatedFailure(t *testing.T) {
	calls := 0
	fetcher := PageFetcherFunc(func(ctx context.Context, q Query, cursor string) (*Page, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("transient timeout")
		case 2:
			return &Page{
				Items:      []RawItem{fakeItem("a", 100)},
				HasMore:    true,
				NextCursor: "c1",
			}, nil
		default:
			return &Page{Items: []RawItem{fakeItem("b", 200)}}, nil
		}
	})

	cfg := fastConfig()
	cfg.Retry = &RetryPolicy{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
	o := NewOrchestrator(fetcher, cfg)
	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	// One failed attempt out of three must not trip the breaker or
	// abort the run.
	require.NoError(t, result.Error)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 2, result.Meta.PagesFetched)
}

func TestRunWithAdaptiveRate(t *testing.T) {
	fetcher := &pagedFetcher{pages: []*Page{
		{Items: []RawItem{fakeItem("a", 100), fakeItem("b", 200)}},
	}}

	cfg := fastConfig()
	cfg.AdaptiveRate = true
	o := NewOrchestrator(fetcher, cfg)
	require.NotNil(t, o.adaptive)

	result := o.Run(context.Background(), Query{
		Type:    QueryTypeSearch,
		Keyword: "cats",
		Limit:   10,
	})

	require.NoError(t, result.Error)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, cfg.RequestsPerSecond, o.adaptive.CurrentRate())
}

func TestToRecordHashtagSources(t *testing.T) {
	item := RawItem{ID: "v1", Desc: "new clip #fromdesc"}

	rec, err := item.ToRecord(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"fromdesc"}, rec.Hashtags)

	// An explicit challenge list wins over description tags.
	item.Challenges = []RawChallenge{{Title: "dance"}, {Title: ""}, {Title: "fyp"}}
	rec, err = item.ToRecord(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"dance", "fyp"}, rec.Hashtags)
}
