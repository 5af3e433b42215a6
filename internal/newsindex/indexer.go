// Package newsindex scans dated news documents and generates the sorted,
// published-only index artifacts.
//
// The indexer degrades all-or-nothing: a structural failure (missing or
// unreadable source directory) substitutes the fixed fallback index rather
// than emitting a partially-correct one. Individual bad documents are merely
// skipped.
package newsindex

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/contentsync/internal/artifact"
	"git.home.luguber.info/inful/contentsync/internal/config"
	"git.home.luguber.info/inful/contentsync/internal/content"
	"git.home.luguber.info/inful/contentsync/internal/document"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
	"git.home.luguber.info/inful/contentsync/internal/manifest"
	"git.home.luguber.info/inful/contentsync/internal/metrics"
	"git.home.luguber.info/inful/contentsync/internal/slug"
)

// Index is the news-index.json payload shared with the runtime resolver.
type Index struct {
	Articles  []content.NewsArticle `json:"articles"`
	Total     int                   `json:"total"`
	Generated string                `json:"generated"`
}

// Indexer generates news-index.json and its per-locale variants.
type Indexer struct {
	cfg       *config.Config
	sourceDir string
	writer    *artifact.Writer
	published content.StatusSet
	rec       metrics.Recorder
	now       func() time.Time
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(ix *Indexer) {
		if r != nil {
			ix.rec = r
		}
	}
}

// WithClock overrides the generation timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(ix *Indexer) { ix.now = now }
}

// New creates an Indexer writing through w.
func New(cfg *config.Config, w *artifact.Writer, opts ...Option) *Indexer {
	ix := &Indexer{
		cfg:       cfg,
		sourceDir: filepath.Join(cfg.Content.Dir, cfg.News.Dir),
		writer:    w,
		published: content.NewStatusSet(cfg.News.PublishedStatuses...),
		rec:       metrics.NoopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Report summarizes one indexing pass.
type Report struct {
	ArticlesIndexed int
	LocalesIndexed  int
	UsedFallback    bool
	WriteFailures   int
	Duration        time.Duration
}

// Run scans the news directory, writes the combined index artifact and one
// index per locale subdirectory that exists, and records paths into m.
func (ix *Indexer) Run(ctx context.Context, m *manifest.Manifest) (*Report, error) {
	start := ix.now()
	rep := &Report{}

	articles, ok := ix.scan(ix.sourceDir)
	if !ok {
		articles = ix.fallback()
		rep.UsedFallback = true
	}
	rep.ArticlesIndexed = len(articles)
	ix.write("news-index.json", "index", articles, m, rep)

	for _, locale := range ix.cfg.Locales.Secondary {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		locDir := filepath.Join(ix.sourceDir, locale)
		if fi, err := os.Stat(locDir); err != nil || !fi.IsDir() {
			// Absence of a locale subtree means no locale index, not an error.
			continue
		}
		locArticles, ok := ix.scan(locDir)
		if !ok {
			locArticles = ix.fallback()
		}
		ix.write("news-index."+locale+".json", "index."+locale, locArticles, m, rep)
		rep.LocalesIndexed++
	}

	rep.Duration = ix.now().Sub(start)
	ix.rec.ObserveStageDuration("news", rep.Duration)
	slog.Info("News index generated",
		logfields.Count(rep.ArticlesIndexed),
		slog.Bool("fallback", rep.UsedFallback),
		logfields.DurationMS(float64(rep.Duration.Milliseconds())))
	return rep, nil
}

// scan enumerates one directory of news documents. ok is false on structural
// failure; per-document failures only skip that document.
func (ix *Indexer) scan(dir string) ([]content.NewsArticle, bool) {
	if _, err := os.Stat(dir); err != nil {
		slog.Warn("News source directory unavailable, falling back", logfields.Path(dir), logfields.Error(err))
		return nil, false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Failed to enumerate news documents, falling back", logfields.Path(dir), logfields.Error(err))
		return nil, false
	}

	articles := make([]content.NewsArticle, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		doc, status := document.Load(filepath.Join(dir, entry.Name()))
		switch status {
		case document.StatusParseFailed:
			ix.rec.IncDocumentResult(metrics.ResultParseError)
			continue
		case document.StatusNotFound:
			// Vanished between ReadDir and Load; skip.
			continue
		}
		ix.rec.IncDocumentResult(metrics.ResultParsed)

		if !ix.published.Contains(rawStatus(doc)) {
			continue
		}
		articles = append(articles, ix.normalize(strings.TrimSuffix(entry.Name(), ".md"), doc))
	}

	content.SortByDateDesc(articles)
	return articles, true
}

// fallback returns the fixed article set with the same filter and sort the
// generated index gets, for consistency.
func (ix *Indexer) fallback() []content.NewsArticle {
	articles := content.FilterPublished(config.FallbackArticles(), ix.published)
	content.SortByDateDesc(articles)
	return articles
}

func (ix *Indexer) write(rel, name string, articles []content.NewsArticle, m *manifest.Manifest, rep *Report) {
	index := Index{
		Articles:  articles,
		Total:     len(articles),
		Generated: ix.now().UTC().Format(time.RFC3339),
	}
	if err := ix.writer.WriteJSON(rel, index); err != nil {
		slog.Error("Failed to write news index", logfields.Artifact(rel), logfields.Error(err))
		ix.rec.IncArtifactWriteFailure("news")
		rep.WriteFailures++
		return
	}
	m.Add("news", name, rel)
	ix.rec.IncArtifactWritten("news")
}

// normalize coerces loose document metadata into a NewsArticle, substituting
// the configured defaults for omitted fields.
func (ix *Indexer) normalize(id string, doc *document.ContentDocument) content.NewsArticle {
	title := content.CoerceString(doc.Metadata["title"], id)

	articleSlug := content.CoerceString(doc.Metadata["slug"], "")
	if articleSlug == "" {
		articleSlug = slug.From(title)
	}
	if articleSlug == "" {
		// Ideographic-only titles slugify to nothing; the filename id holds.
		articleSlug = id
	}

	summary := content.CoerceString(doc.Metadata["summary"], "")
	if summary == "" {
		summary = truncate(doc.Body, ix.cfg.News.SummaryLength)
	}

	featured := content.CoerceString(doc.Metadata["featuredImage"], "")
	if featured == "" {
		featured = content.CoerceString(doc.Metadata["featured_image"], "")
	}

	return content.NewsArticle{
		ID:            id,
		Title:         title,
		Date:          dateString(doc.Metadata["date"]),
		Category:      content.CoerceString(doc.Metadata["category"], ix.cfg.News.DefaultCategory),
		Summary:       summary,
		Content:       doc.Body,
		Status:        content.CoerceString(doc.Metadata["status"], config.DefaultArticleStatus),
		Author:        content.CoerceString(doc.Metadata["author"], ix.cfg.News.DefaultAuthor),
		Keywords:      content.CoerceStringSlice(doc.Metadata["keywords"]),
		Slug:          articleSlug,
		FeaturedImage: featured,
	}
}

func rawStatus(doc *document.ContentDocument) string {
	return content.CoerceString(doc.Metadata["status"], "")
}

// dateString normalizes the date metadata field. yaml.v3 parses unquoted ISO
// dates into time.Time, quoted ones stay strings; both are accepted.
func dateString(v any) string {
	switch d := v.(type) {
	case time.Time:
		if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 {
			return d.Format("2006-01-02")
		}
		return d.Format(time.RFC3339)
	case string:
		return content.NormalizeDate(d)
	default:
		return ""
	}
}

// truncate cuts s to at most n runes, appending an ellipsis when content was
// dropped.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
