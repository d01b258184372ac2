// Package models provides the canonical record types for tt-search.
// Records are created by the extraction orchestrator from raw source
// payloads, validated once, and are immutable afterwards; the columnar
// store and the analytics engine both operate on these types.
package models

import (
	"time"

	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// VideoStats holds the engagement counters of a single video.
type VideoStats struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Views    int64 `json:"views"`
}

// MusicInfo holds the music attribution of a video.
type MusicInfo struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// VideoRecord is the canonical representation of one short video.
type VideoRecord struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Author      string     `json:"author"`
	AuthorID    string     `json:"authorId"`
	CreateTime  int64      `json:"createTime"`
	Music       MusicInfo  `json:"music"`
	Stats       VideoStats `json:"stats"`
	Hashtags    []string   `json:"hashtags"`
	VideoURL    string     `json:"videoUrl"`
	CoverURL    string     `json:"coverUrl"`
	Duration    int64      `json:"duration"`
	ScrapedAt   int64      `json:"scrapedAt"`
}

// Validate checks the record against the required-field rules.
// A record missing its id or carrying a negative stats counter is
// rejected; the caller drops it and keeps the run going.
func (v *VideoRecord) Validate() error {
	if v.ID == "" {
		return tterrors.New(tterrors.ErrorTypeValidation, "video record missing id")
	}
	if v.Stats.Likes < 0 || v.Stats.Comments < 0 || v.Stats.Shares < 0 || v.Stats.Views < 0 {
		return tterrors.Newf(tterrors.ErrorTypeValidation,
			"video %s has negative stats counter", v.ID)
	}
	if v.CreateTime < 0 {
		return tterrors.Newf(tterrors.ErrorTypeValidation,
			"video %s has negative create time", v.ID)
	}
	return nil
}

// CreatedAt returns the creation time as a time.Time in UTC.
func (v *VideoRecord) CreatedAt() time.Time {
	return time.Unix(v.CreateTime, 0).UTC()
}

// UserRecord is the canonical representation of one author profile.
type UserRecord struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Signature string `json:"signature"`
	AvatarURL string `json:"avatarUrl"`
	Verified  bool   `json:"verified"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Videos    int64  `json:"videos"`
	Hearts    int64  `json:"hearts"`
	ScrapedAt int64  `json:"scrapedAt"`
}

// Validate checks the profile against the required-field rules.
func (u *UserRecord) Validate() error {
	if u.ID == "" && u.Username == "" {
		return tterrors.New(tterrors.ErrorTypeValidation, "user record missing id and username")
	}
	if u.Followers < 0 || u.Following < 0 || u.Videos < 0 || u.Hearts < 0 {
		return tterrors.Newf(tterrors.ErrorTypeValidation,
			"user %s has negative counter", u.Username)
	}
	return nil
}

// HashtagRecord is the canonical representation of one trending hashtag.
// Views keeps the source's string form because counts are often
// abbreviated ("1.2M") and can exceed what the source reports exactly.
type HashtagRecord struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Views string `json:"views"`
}

// ViewCount parses the abbreviated view counter into an integer.
func (h *HashtagRecord) ViewCount() (int64, error) {
	return ParseCount(h.Views)
}

// Validate checks the hashtag against the required-field rules.
func (h *HashtagRecord) Validate() error {
	if h.Name == "" {
		return tterrors.New(tterrors.ErrorTypeValidation, "hashtag record missing name")
	}
	return nil
}
