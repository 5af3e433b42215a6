// Package content holds the typed records shared by the build pipeline and
// the runtime resolvers, so the two sides agree on filtering and ordering by
// construction.
package content

import (
	"sort"
	"strings"
	"time"
)

// NewsArticle is the normalized form of one dated news document.
// Field names follow the JSON consumed by the page layer.
type NewsArticle struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	Category      string   `json:"category"`
	Summary       string   `json:"summary"`
	Content       string   `json:"content"`
	Status        string   `json:"status"`
	Author        string   `json:"author"`
	Keywords      []string `json:"keywords"`
	Slug          string   `json:"slug"`
	FeaturedImage string   `json:"featuredImage,omitempty"`
}

// dateLayouts lists the date representations accepted across authoring
// locales, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006年1月2日",
}

// ParseDate parses a heterogeneous date string into a time.Time.
// ok is false when no supported layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate rewrites a parseable date to ISO form (2006-01-02, or RFC3339
// when a time component is present). Unparseable input is returned verbatim.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// FilterPublished returns the articles whose status is in the published set,
// preserving input order.
func FilterPublished(articles []NewsArticle, published StatusSet) []NewsArticle {
	out := make([]NewsArticle, 0, len(articles))
	for _, a := range articles {
		if published.Contains(a.Status) {
			out = append(out, a)
		}
	}
	return out
}

// SortByDateDesc orders articles newest-first. The sort is stable: articles
// with equal (or unparseable) dates keep their enumeration order, and
// unparseable dates sort last.
func SortByDateDesc(articles []NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, oki := ParseDate(articles[i].Date)
		tj, okj := ParseDate(articles[j].Date)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return ti.After(tj)
	})
}
