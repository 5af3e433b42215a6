package content

import "strings"

// StatusSet is an explicit enumeration of status strings that mean
// "visible to the public". Source documents are authored in several locales,
// so the set carries every supported spelling; both the build-time indexer
// and the runtime article filter are constructed from the same set.
type StatusSet map[string]struct{}

// NewStatusSet builds a StatusSet from literal status values.
func NewStatusSet(values ...string) StatusSet {
	s := make(StatusSet, len(values))
	for _, v := range values {
		s[strings.TrimSpace(v)] = struct{}{}
	}
	return s
}

// Contains reports whether status (whitespace-trimmed) is in the set.
// Anything outside the set means draft.
func (s StatusSet) Contains(status string) bool {
	_, ok := s[strings.TrimSpace(status)]
	return ok
}

// Values returns the set's members in unspecified order.
func (s StatusSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// DefaultPublishedStatuses enumerates the published spellings used by the
// authoring locales: English, zh-Hans, zh-Hant.
func DefaultPublishedStatuses() []string {
	return []string{"published", "已发布", "發布"}
}
