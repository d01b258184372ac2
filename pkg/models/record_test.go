package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brashkie/tt-search/pkg/tterrors"
)

func TestVideoRecordValidate(t *testing.T) {
	valid := VideoRecord{
		ID:         "7234567890123456789",
		Author:     "dancequeen",
		CreateTime: 1700000000,
		Stats:      VideoStats{Likes: 150000, Comments: 3200, Shares: 8900, Views: 2500000},
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.ID = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.True(t, tterrors.IsType(err, tterrors.ErrorTypeValidation))

	negative := valid
	negative.Stats.Views = -1
	assert.Error(t, negative.Validate())
}

func TestUserRecordValidate(t *testing.T) {
	u := UserRecord{ID: "123", Username: "dancequeen", Followers: 50000}
	assert.NoError(t, u.Validate())

	u = UserRecord{Followers: 10}
	assert.Error(t, u.Validate())

	u = UserRecord{Username: "x", Hearts: -5}
	assert.Error(t, u.Validate())
}

func TestHashtagViewCount(t *testing.T) {
	h := HashtagRecord{Name: "fyp", Views: "1.2M"}
	n, err := h.ViewCount()
	require.NoError(t, err)
	assert.Equal(t, int64(1200000), n)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12345", 12345},
		{"12,345", 12345},
		{"0", 0},
		{"3K", 3000},
		{"1.2M", 1200000},
		{"1.5B", 1500000000},
		{"2.7k", 2700},
		{" 42 ", 42},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "-5", "-1.2M"} {
		_, err := ParseCount(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("dance challenge #fyp #Dance #fyp check it out")
	assert.Equal(t, []string{"fyp", "Dance", "fyp"}, tags)

	assert.Nil(t, ExtractHashtags("no tags here"))
	assert.Equal(t, []string{"baile_2024"}, ExtractHashtags("hola #baile_2024"))
}

func TestVideoSchemaFields(t *testing.T) {
	s := VideoSchema()
	assert.Equal(t, "videos", s.Name)
	assert.Equal(t, 0, s.FieldIndex("id"))
	assert.Equal(t, -1, s.FieldIndex("engagement"))
	assert.Len(t, s.FieldNames(), len(s.Fields))

	likes := s.Fields[s.FieldIndex("likes")]
	assert.Equal(t, FieldTypeInt, likes.Type)
	tags := s.Fields[s.FieldIndex("hashtags")]
	assert.Equal(t, FieldTypeStringList, tags.Type)
}
