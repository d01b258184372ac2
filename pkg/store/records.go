package store

import (
	"github.com/Brashkie/tt-search/pkg/models"
)

// Row is one flattened record keyed by schema field name.
type Row = map[string]interface{}

// VideoRow flattens a video record into its columnar row shape.
func VideoRow(r *models.VideoRecord) Row {
	return Row{
		"id":           r.ID,
		"description":  r.Description,
		"author":       r.Author,
		"author_id":    r.AuthorID,
		"create_time":  r.CreateTime,
		"music_title":  r.Music.Title,
		"music_author": r.Music.Author,
		"likes":        r.Stats.Likes,
		"comments":     r.Stats.Comments,
		"shares":       r.Stats.Shares,
		"views":        r.Stats.Views,
		"hashtags":     r.Hashtags,
		"video_url":    r.VideoURL,
		"cover_url":    r.CoverURL,
		"duration":     r.Duration,
		"scraped_at":   r.ScrapedAt,
	}
}

// VideoFromRow rebuilds a video record from its row shape.
func VideoFromRow(row Row) *models.VideoRecord {
	return &models.VideoRecord{
		ID:          asString(row["id"]),
		Description: asString(row["description"]),
		Author:      asString(row["author"]),
		AuthorID:    asString(row["author_id"]),
		CreateTime:  asInt64(row["create_time"]),
		Music: models.MusicInfo{
			Title:  asString(row["music_title"]),
			Author: asString(row["music_author"]),
		},
		Stats: models.VideoStats{
			Likes:    asInt64(row["likes"]),
			Comments: asInt64(row["comments"]),
			Shares:   asInt64(row["shares"]),
			Views:    asInt64(row["views"]),
		},
		Hashtags:  asStringList(row["hashtags"]),
		VideoURL:  asString(row["video_url"]),
		CoverURL:  asString(row["cover_url"]),
		Duration:  asInt64(row["duration"]),
		ScrapedAt: asInt64(row["scraped_at"]),
	}
}

// UserRow flattens a user record into its columnar row shape.
func UserRow(r *models.UserRecord) Row {
	return Row{
		"id":         r.ID,
		"username":   r.Username,
		"nickname":   r.Nickname,
		"signature":  r.Signature,
		"avatar_url": r.AvatarURL,
		"verified":   r.Verified,
		"followers":  r.Followers,
		"following":  r.Following,
		"videos":     r.Videos,
		"hearts":     r.Hearts,
		"scraped_at": r.ScrapedAt,
	}
}

// UserFromRow rebuilds a user record from its row shape.
func UserFromRow(row Row) *models.UserRecord {
	return &models.UserRecord{
		ID:        asString(row["id"]),
		Username:  asString(row["username"]),
		Nickname:  asString(row["nickname"]),
		Signature: asString(row["signature"]),
		AvatarURL: asString(row["avatar_url"]),
		Verified:  asBool(row["verified"]),
		Followers: asInt64(row["followers"]),
		Following: asInt64(row["following"]),
		Videos:    asInt64(row["videos"]),
		Hearts:    asInt64(row["hearts"]),
		ScrapedAt: asInt64(row["scraped_at"]),
	}
}

// HashtagRow flattens a hashtag record into its columnar row shape.
func HashtagRow(r *models.HashtagRecord) Row {
	return Row{
		"name":  r.Name,
		"url":   r.URL,
		"views": r.Views,
	}
}

// HashtagFromRow rebuilds a hashtag record from its row shape.
func HashtagFromRow(row Row) *models.HashtagRecord {
	return &models.HashtagRecord{
		Name:  asString(row["name"]),
		URL:   asString(row["url"]),
		Views: asString(row["views"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStringList(v interface{}) []string {
	l, _ := v.([]string)
	return l
}
