package policy

import "strings"

// FilterResult is the outcome of screening a piece of text
type FilterResult struct {
	Allowed bool     `json:"allowed"`
	Matched []string `json:"matched"`
}

// CheckContent screens text against the keyword list. Matching is
// case-insensitive substring containment; no stemming, tokenization or
// regular expressions. An empty keyword list always allows. Callers pass a
// concatenation of whatever fields should be screened (title plus
// description, comment body, and so on).
func CheckContent(text string, keywords []string) FilterResult {
	matched := make([]string, 0)
	lowered := strings.ToLower(text)

	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}

	return FilterResult{
		Allowed: len(matched) == 0,
		Matched: matched,
	}
}
