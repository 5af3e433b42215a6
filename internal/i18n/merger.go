package i18n

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/contentsync/internal/logfields"
	"git.home.luguber.info/inful/contentsync/internal/resolver"
)

// Merger produces the per-locale translation dictionary consumed by the page
// layer: the compiled-in tree with CMS overlay fragments deep-merged on top.
//
// Each locale is computed once and cached for the life of the process; the
// underlying artifacts are immutable between builds, so there is nothing to
// recompute per request.
type Merger struct {
	client    *resolver.Client
	base      map[string]map[string]any // locale -> compiled-in tree
	fragments []string                  // overlay artifact paths, merged in order

	mu    sync.Mutex
	cache map[string]map[string]any
}

// NewMerger builds a Merger. base maps locale codes to compiled-in trees;
// fragments lists the named overlay artifacts (locale-neutral paths, fetched
// through the locale cascade) merged together before merging onto the base.
func NewMerger(client *resolver.Client, base map[string]map[string]any, fragments []string) *Merger {
	return &Merger{
		client:    client,
		base:      base,
		fragments: fragments,
		cache:     make(map[string]map[string]any),
	}
}

// Resources returns the merged dictionary for locale. A fragment that cannot
// be fetched contributes nothing; the compiled-in tree guarantees a complete
// dictionary regardless.
//
// The lock guards only the cache, never the fetch chain, so a slow fetch for
// one locale cannot stall lookups for another. Concurrent first calls for the
// same locale may both compute; the first store wins and all callers see that
// one result from then on.
func (m *Merger) Resources(ctx context.Context, locale string) map[string]any {
	m.mu.Lock()
	if cached, ok := m.cache[locale]; ok {
		m.mu.Unlock()
		return cached
	}
	m.mu.Unlock()

	overlay := map[string]any{}
	for _, fragment := range m.fragments {
		res := m.client.ResolveLocalized(ctx, fragment, locale, nil)
		if res.Err != nil {
			slog.Warn("Translation overlay fragment unavailable",
				logfields.Artifact(fragment), logfields.Locale(locale), logfields.Error(res.Err))
			continue
		}
		overlay = DeepMerge(overlay, res.Content)
	}

	base := m.base[locale]
	if base == nil {
		base = map[string]any{}
	}
	merged := DeepMerge(base, overlay)

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.cache[locale]; ok {
		return cached
	}
	m.cache[locale] = merged
	return merged
}
