package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/contentsync/internal/content"
	pipeerr "git.home.luguber.info/inful/contentsync/internal/errors"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
)

// newsIndexPath is the locale-neutral news index artifact.
const newsIndexPath = "news-index.json"

// ArticleResolution is the three-state article view. Articles is always
// populated (from the fetched index or the fixed fallback set), so consumers
// never see an empty, unusable state purely due to a transient failure.
type ArticleResolution struct {
	Articles []content.NewsArticle
	Loading  bool
	Err      error
}

// PendingArticles is the initial state before any index fetch settles.
func PendingArticles(fallback []content.NewsArticle) ArticleResolution {
	return ArticleResolution{Articles: fallback, Loading: true}
}

// ArticleResolver fetches the generated news index with a locale cascade and
// re-verifies the published contract defensively: the index is trusted but
// may have been hand-edited.
type ArticleResolver struct {
	client    *Client
	published content.StatusSet
	fallback  []content.NewsArticle
}

// NewArticleResolver builds an ArticleResolver over the given client. The
// published set must be the same enumeration the build-time indexer used.
func NewArticleResolver(client *Client, published content.StatusSet, fallback []content.NewsArticle) *ArticleResolver {
	return &ArticleResolver{client: client, published: published, fallback: fallback}
}

// Resolve fetches news-index.<locale>.json, falls back to news-index.json,
// then to the fixed fallback set. Err is non-nil only when both fetches fail.
func (r *ArticleResolver) Resolve(ctx context.Context, locale string) ArticleResolution {
	paths := []string{newsIndexPath}
	if locale != "" {
		paths = []string{LocalizePath(newsIndexPath, locale), newsIndexPath}
	}

	var lastErr error
	for _, path := range paths {
		articles, err := r.fetchIndex(ctx, path)
		if err != nil {
			lastErr = err
			continue
		}
		return ArticleResolution{Articles: r.prepare(articles)}
	}

	slog.Warn("News index unavailable, serving fallback articles", logfields.Error(lastErr))
	return ArticleResolution{Articles: r.prepare(r.fallback), Err: lastErr}
}

// prepare applies the published filter and date sort, identically for fetched
// and fallback sets.
func (r *ArticleResolver) prepare(articles []content.NewsArticle) []content.NewsArticle {
	out := content.FilterPublished(articles, r.published)
	content.SortByDateDesc(out)
	return out
}

func (r *ArticleResolver) fetchIndex(ctx context.Context, path string) ([]content.NewsArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.client.artifactURL(path), nil)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "build request")
	}

	resp, err := r.client.hc.Do(req)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "fetch news index").WithContext("path", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pipeerr.New(pipeerr.CategoryFetch, pipeerr.SeverityWarning,
			fmt.Sprintf("news index unavailable: status %d", resp.StatusCode)).WithContext("path", path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "read news index body")
	}

	var index struct {
		Articles []content.NewsArticle `json:"articles"`
	}
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryFetch, pipeerr.SeverityWarning, "malformed news index JSON").WithContext("path", path)
	}
	return index.Articles, nil
}
