package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Brashkie/tt-search/pkg/tterrors"
)

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// countSuffixes maps abbreviation suffixes to their multipliers.
var countSuffixes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// ParseCount converts a string-encoded counter into an integer. It
// accepts plain digits ("12345"), thousands separators ("12,345") and
// the abbreviated forms platforms display ("1.2M", "3K", "1.5B").
// Abbreviated values round toward zero after scaling.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, tterrors.New(tterrors.ErrorTypeValidation, "empty count")
	}

	s = strings.ReplaceAll(s, ",", "")

	multiplier := float64(1)
	last := s[len(s)-1]
	if m, ok := countSuffixes[last]; ok {
		multiplier = m
		s = s[:len(s)-1]
	} else if m, ok := countSuffixes[last&^0x20]; ok {
		// lowercase suffix
		multiplier = m
		s = s[:len(s)-1]
	}

	if multiplier == 1 {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "unparseable count")
		}
		if n < 0 {
			return 0, tterrors.Newf(tterrors.ErrorTypeValidation, "negative count %d", n)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, tterrors.Wrap(err, tterrors.ErrorTypeValidation, "unparseable count")
	}
	if f < 0 {
		return 0, tterrors.Newf(tterrors.ErrorTypeValidation, "negative count %s", s)
	}
	return int64(f * multiplier), nil
}

// ExtractHashtags returns the hashtags embedded in a description, in
// order of appearance, without the leading '#'. Duplicates within one
// description are preserved; the analytics layer decides how to count.
func ExtractHashtags(description string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(description, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}
