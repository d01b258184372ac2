// Package extract implements the extraction orchestrator: it drives
// paginated fetches against an abstract page source and turns the raw,
// unreliable item stream into deduplicated, validated records.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// QueryType selects what kind of lookup a run performs.
type QueryType string

const (
	// QueryTypeSearch is a keyword search
	QueryTypeSearch QueryType = "search"
	// QueryTypeUser lists a single author's videos
	QueryTypeUser QueryType = "user"
	// QueryTypeTrending requests the trending feed
	QueryTypeTrending QueryType = "trending"
)

// Query describes one extraction run.
type Query struct {
	Type     QueryType `json:"type"`
	Keyword  string    `json:"keyword,omitempty"`
	Username string    `json:"username,omitempty"`
	Limit    int       `json:"limit"`
	// SortBy is passed through to the source as a hint; the
	// orchestrator itself never re-sorts.
	SortBy string `json:"sortBy,omitempty"`
}

// Validate checks the query before a run starts.
func (q *Query) Validate() error {
	if q.Limit <= 0 {
		return tterrors.New(tterrors.ErrorTypeValidation, "query limit must be positive")
	}
	switch q.Type {
	case QueryTypeSearch:
		if q.Keyword == "" {
			return tterrors.New(tterrors.ErrorTypeValidation, "search query missing keyword")
		}
	case QueryTypeUser:
		if q.Username == "" {
			return tterrors.New(tterrors.ErrorTypeValidation, "user query missing username")
		}
	case QueryTypeTrending:
	default:
		return tterrors.Newf(tterrors.ErrorTypeValidation, "unknown query type %q", q.Type)
	}
	return nil
}

// Target returns the human-readable subject of the query.
func (q *Query) Target() string {
	switch q.Type {
	case QueryTypeUser:
		return q.Username
	case QueryTypeTrending:
		return "trending"
	default:
		return q.Keyword
	}
}

// Page is one page of raw items plus the cursor for the next one.
// An empty NextCursor with HasMore false means the source is exhausted.
type Page struct {
	Items      []RawItem `json:"itemList"`
	NextCursor string    `json:"cursor"`
	HasMore    bool      `json:"hasMore"`
}

// PageFetcher is the abstract page-fetch capability supplied by the
// browser-automation layer. Implementations own the session; the
// orchestrator owns pacing, retries, and dedup.
type PageFetcher interface {
	FetchPage(ctx context.Context, query Query, cursor string) (*Page, error)
}

// PageFetcherFunc adapts a function to the PageFetcher interface.
type PageFetcherFunc func(ctx context.Context, query Query, cursor string) (*Page, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, query Query, cursor string) (*Page, error) {
	return f(ctx, query, cursor)
}

// RawItem mirrors the source payload shape for one video. Stats arrive
// either as numbers or abbreviated strings ("1.2M"), so they stay
// untyped until validation.
type RawItem struct {
	ID         string         `json:"id"`
	Desc       string         `json:"desc"`
	CreateTime int64          `json:"createTime"`
	Author     RawAuthor      `json:"author"`
	Stats      RawStats       `json:"stats"`
	Music      RawMusic       `json:"music"`
	Video      RawVideoMeta   `json:"video"`
	Challenges []RawChallenge `json:"challenges"`
}

// RawChallenge mirrors one entry of a raw item's challenges array.
type RawChallenge struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RawAuthor mirrors the author block of a raw item.
type RawAuthor struct {
	ID        string `json:"id"`
	UniqueID  string `json:"uniqueId"`
	Nickname  string `json:"nickname"`
	Signature string `json:"signature"`
	Avatar    string `json:"avatarLarger"`
	Verified  bool   `json:"verified"`
}

// RawStats mirrors the stats block of a raw item.
type RawStats struct {
	DiggCount    interface{} `json:"diggCount"`
	CommentCount interface{} `json:"commentCount"`
	ShareCount   interface{} `json:"shareCount"`
	PlayCount    interface{} `json:"playCount"`
}

// RawMusic mirrors the music block of a raw item.
type RawMusic struct {
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
}

// RawVideoMeta mirrors the video block of a raw item.
type RawVideoMeta struct {
	Duration int64  `json:"duration"`
	Cover    string `json:"cover"`
	PlayAddr string `json:"playAddr"`
}

// DecodePage decodes a raw JSON page payload.
func DecodePage(data []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeTransient, "malformed page payload")
	}
	return &page, nil
}

// ToRecord converts a raw item into a validated VideoRecord.
// hashtags returns the item's explicit challenge titles, falling back
// to tags embedded in the description when the payload carries none.
func (r *RawItem) hashtags() []string {
	var tags []string
	for _, c := range r.Challenges {
		if c.Title != "" {
			tags = append(tags, c.Title)
		}
	}
	if len(tags) > 0 {
		return tags
	}
	return models.ExtractHashtags(r.Desc)
}

func (r *RawItem) ToRecord(scrapedAt time.Time) (*models.VideoRecord, error) {
	likes, err := parseRawCount(r.Stats.DiggCount)
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "bad likes count")
	}
	comments, err := parseRawCount(r.Stats.CommentCount)
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "bad comments count")
	}
	shares, err := parseRawCount(r.Stats.ShareCount)
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "bad shares count")
	}
	views, err := parseRawCount(r.Stats.PlayCount)
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "bad views count")
	}

	record := &models.VideoRecord{
		ID:          r.ID,
		Description: r.Desc,
		Author:      r.Author.UniqueID,
		AuthorID:    r.Author.ID,
		CreateTime:  r.CreateTime,
		Music: models.MusicInfo{
			Title:  r.Music.Title,
			Author: r.Music.AuthorName,
		},
		Stats: models.VideoStats{
			Likes:    likes,
			Comments: comments,
			Shares:   shares,
			Views:    views,
		},
		Hashtags:  r.hashtags(),
		VideoURL:  r.Video.PlayAddr,
		CoverURL:  r.Video.Cover,
		Duration:  r.Video.Duration,
		ScrapedAt: scrapedAt.Unix(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// parseRawCount coerces a raw stats value into a non-negative integer.
func parseRawCount(v interface{}) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("negative count %v", n)
		}
		return int64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		if i < 0 {
			return 0, fmt.Errorf("negative count %d", i)
		}
		return i, nil
	case string:
		return models.ParseCount(n)
	default:
		return 0, fmt.Errorf("unparseable count %T", v)
	}
}
