package models

// FieldType enumerates the column types a stored record field maps to.
type FieldType string

const (
	FieldTypeString     FieldType = "string"
	FieldTypeInt        FieldType = "int"
	FieldTypeBool       FieldType = "bool"
	FieldTypeTimestamp  FieldType = "timestamp"
	FieldTypeStringList FieldType = "string_list"
)

// Field describes a single flattened record field.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Schema describes the flattened columnar layout of a record type.
// Nested struct fields flatten to dotted-free top-level names
// (stats.likes becomes likes) so every export format sees the same
// row shape.
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// FieldNames returns the field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldIndex returns the position of the named field, or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// VideoSchema returns the columnar layout of VideoRecord.
func VideoSchema() *Schema {
	return &Schema{
		Name: "videos",
		Fields: []Field{
			{Name: "id", Type: FieldTypeString, Required: true},
			{Name: "description", Type: FieldTypeString},
			{Name: "author", Type: FieldTypeString},
			{Name: "author_id", Type: FieldTypeString},
			{Name: "create_time", Type: FieldTypeTimestamp},
			{Name: "music_title", Type: FieldTypeString},
			{Name: "music_author", Type: FieldTypeString},
			{Name: "likes", Type: FieldTypeInt},
			{Name: "comments", Type: FieldTypeInt},
			{Name: "shares", Type: FieldTypeInt},
			{Name: "views", Type: FieldTypeInt},
			{Name: "hashtags", Type: FieldTypeStringList},
			{Name: "video_url", Type: FieldTypeString},
			{Name: "cover_url", Type: FieldTypeString},
			{Name: "duration", Type: FieldTypeInt},
			{Name: "scraped_at", Type: FieldTypeTimestamp},
		},
	}
}

// UserSchema returns the columnar layout of UserRecord.
func UserSchema() *Schema {
	return &Schema{
		Name: "users",
		Fields: []Field{
			{Name: "id", Type: FieldTypeString, Required: true},
			{Name: "username", Type: FieldTypeString},
			{Name: "nickname", Type: FieldTypeString},
			{Name: "signature", Type: FieldTypeString},
			{Name: "avatar_url", Type: FieldTypeString},
			{Name: "verified", Type: FieldTypeBool},
			{Name: "followers", Type: FieldTypeInt},
			{Name: "following", Type: FieldTypeInt},
			{Name: "videos", Type: FieldTypeInt},
			{Name: "hearts", Type: FieldTypeInt},
			{Name: "scraped_at", Type: FieldTypeTimestamp},
		},
	}
}

// HashtagSchema returns the columnar layout of HashtagRecord.
func HashtagSchema() *Schema {
	return &Schema{
		Name: "hashtags",
		Fields: []Field{
			{Name: "name", Type: FieldTypeString, Required: true},
			{Name: "url", Type: FieldTypeString},
			{Name: "views", Type: FieldTypeString},
		},
	}
}
