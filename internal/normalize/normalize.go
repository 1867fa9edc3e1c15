// Package normalize converts raw heterogeneous export fields (amounts,
// tag collections) into the canonical shapes the rest of the system
// assumes. All functions are forgiving: malformed input degrades to a
// zero value instead of failing a batch.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// Amount parses a number that may use a comma as the decimal separator
// (and a dot as thousands separator). Unparseable input yields 0.
func Amount(v string) float64 {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		// European format: dot is a thousands separator when both appear.
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Tags cleans a heterogeneous collection of tag-like tokens: strips '#',
// lowercases, splits on internal whitespace and commas, dedupes and sorts.
// Idempotent: Tags(Tags(x)) == Tags(x).
func Tags(raw []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range raw {
		cleaned := strings.NewReplacer("#", "", ",", " ").Replace(t)
		for _, part := range strings.Fields(cleaned) {
			part = strings.ToLower(part)
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	sort.Strings(out)
	return out
}

// Token normalizes a single tag for comparison: lowercased, '#'-stripped,
// trimmed. Applied uniformly to stored tags, rule match values and
// loan-tag config before any comparison.
func Token(s string) string {
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(s, "#", "")))
}

// DecodeStored is the single storage-boundary decoder for tag columns.
// Older databases persisted tags in three shapes: a comma or space joined
// string, a stringified list ("['a', 'b']"), or a single token. All of
// them come out as a normalized tag set.
func DecodeStored(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.NewReplacer("'", "", `"`, "").Replace(s[1 : len(s)-1])
	}
	return Tags([]string{s})
}

// EncodeStored renders a tag set into the canonical stored form.
func EncodeStored(tags []string) string {
	return strings.Join(Tags(tags), ",")
}

// ExtractHashtags returns the '#word' tokens found in free text.
func ExtractHashtags(s string) []string {
	var out []string
	for _, m := range hashtagRe.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}
