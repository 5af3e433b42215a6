// Package synth generates the per-entity content artifacts consumed by the
// site at runtime.
//
// For the primary locale an artifact always exists: it is derived from the
// source document when one is present and from the entity's fixed default
// record otherwise. Secondary-locale artifacts are written only when a
// locale-specific document exists; absence of a translation is a valid,
// observable state, not an error.
package synth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/contentsync/internal/artifact"
	"git.home.luguber.info/inful/contentsync/internal/config"
	"git.home.luguber.info/inful/contentsync/internal/content"
	"git.home.luguber.info/inful/contentsync/internal/document"
	"git.home.luguber.info/inful/contentsync/internal/logfields"
	"git.home.luguber.info/inful/contentsync/internal/manifest"
	"git.home.luguber.info/inful/contentsync/internal/markdown"
	"git.home.luguber.info/inful/contentsync/internal/metrics"
)

// Synthesizer writes one JSON artifact per (entity, locale) cell.
type Synthesizer struct {
	cfg        *config.Config
	contentDir string
	writer     *artifact.Writer
	rec        metrics.Recorder
	now        func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Synthesizer) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithClock overrides the generation timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// New creates a Synthesizer writing through w.
func New(cfg *config.Config, w *artifact.Writer, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		cfg:        cfg,
		contentDir: cfg.Content.Dir,
		writer:     w,
		rec:        metrics.NoopRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report summarizes one synthesis pass. WriteFailures > 0 means the build
// should exit non-zero after finishing everything it could.
type Report struct {
	ArtifactsWritten int
	WriteFailures    int
	Duration         time.Duration
}

// ServicesIndex is the aggregate services/index.json payload.
type ServicesIndex struct {
	Services  []content.ServiceEntity `json:"services"`
	Total     int                     `json:"total"`
	Generated string                  `json:"generated"`
}

// Run synthesizes every entity artifact plus the services aggregate,
// recording written paths into m. A write failure for one artifact is logged
// and does not abort synthesis of the remaining artifacts.
func (s *Synthesizer) Run(ctx context.Context, m *manifest.Manifest) (*Report, error) {
	start := s.now()
	rep := &Report{}

	for _, entity := range config.Entities() {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		s.synthesizeEntity(entity, m, rep)
	}
	entitiesDone := s.now()
	s.rec.ObserveStageDuration("entities", entitiesDone.Sub(start))

	s.synthesizeServices(m, rep)
	servicesDone := s.now()
	s.rec.ObserveStageDuration("services", servicesDone.Sub(entitiesDone))

	rep.Duration = servicesDone.Sub(start)
	slog.Info("Artifact synthesis finished",
		logfields.Count(rep.ArtifactsWritten),
		slog.Int("write_failures", rep.WriteFailures),
		logfields.DurationMS(float64(rep.Duration.Milliseconds())))
	return rep, nil
}

func (s *Synthesizer) synthesizeEntity(e config.Entity, m *manifest.Manifest, rep *Report) {
	doc, status := document.Load(filepath.Join(s.contentDir, filepath.FromSlash(e.Source)))
	s.recordLoad(status)

	payload := e.Defaults
	if status == document.StatusFound && s.documentUsable(e, doc) {
		payload = artifactFromDocument(doc)
	}
	s.write(e.Group, artifactName(e.Artifact), e.Artifact, payload, m, rep)

	for _, locale := range s.cfg.Locales.Secondary {
		locDoc, locStatus := document.Load(filepath.Join(s.contentDir, filepath.FromSlash(localize(e.Source, locale))))
		if locStatus != document.StatusNotFound {
			s.recordLoad(locStatus)
		}
		if locStatus != document.StatusFound {
			// No secondary-locale fallback synthesis.
			continue
		}
		locArtifact := localize(e.Artifact, locale)
		s.write(e.Group, artifactName(locArtifact), locArtifact, artifactFromDocument(locDoc), m, rep)
	}
}

// documentUsable applies the entity's non-empty list guard: a team roster
// without members is treated as not-found so the defaults take over.
func (s *Synthesizer) documentUsable(e config.Entity, doc *document.ContentDocument) bool {
	if e.RequiredList == "" {
		return true
	}
	items, ok := doc.Metadata[e.RequiredList].([]any)
	if !ok || len(items) == 0 {
		slog.Warn("Document missing required list, using defaults",
			logfields.Entity(e.Name), logfields.Path(doc.Path), slog.String("key", e.RequiredList))
		return false
	}
	return true
}

func (s *Synthesizer) synthesizeServices(m *manifest.Manifest, rep *Report) {
	services := s.loadServices(filepath.Join(s.contentDir, config.ServicesSourceDir), "")
	if len(services) == 0 {
		slog.Info("No service documents found, using default service list")
		services = config.DefaultServices()
	}
	sortServices(services)

	for _, svc := range services {
		s.write(config.ServicesGroup, svc.ID, "services/"+svc.ID+".json", svc, m, rep)
	}
	s.write(config.ServicesGroup, "index", "services/index.json", ServicesIndex{
		Services:  services,
		Total:     len(services),
		Generated: s.now().UTC().Format(time.RFC3339),
	}, m, rep)

	// Per-locale service indexes come only from locale documents that exist.
	for _, locale := range s.cfg.Locales.Secondary {
		locServices := s.loadServices(filepath.Join(s.contentDir, config.ServicesSourceDir), locale)
		if len(locServices) == 0 {
			continue
		}
		sortServices(locServices)
		for _, svc := range locServices {
			s.write(config.ServicesGroup, svc.ID+"."+locale, "services/"+svc.ID+"."+locale+".json", svc, m, rep)
		}
		s.write(config.ServicesGroup, "index."+locale, "services/index."+locale+".json", ServicesIndex{
			Services:  locServices,
			Total:     len(locServices),
			Generated: s.now().UTC().Format(time.RFC3339),
		}, m, rep)
	}
}

// loadServices reads service documents for one locale ("" = primary).
// Enumeration order is os.ReadDir's lexical order; it is the tie-break order
// for equal sort keys downstream.
func (s *Synthesizer) loadServices(dir, locale string) []content.ServiceEntity {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var services []content.ServiceEntity
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		id, entryLocale := splitLocaleSuffix(strings.TrimSuffix(entry.Name(), ".md"), s.cfg.Locales.Secondary)
		if entryLocale != locale {
			continue
		}

		doc, status := document.Load(filepath.Join(dir, entry.Name()))
		s.recordLoad(status)
		if status != document.StatusFound {
			continue
		}
		services = append(services, serviceFromDocument(id, doc))
	}
	return services
}

func (s *Synthesizer) write(group, name, rel string, payload any, m *manifest.Manifest, rep *Report) {
	if err := s.writer.WriteJSON(rel, payload); err != nil {
		slog.Error("Failed to write artifact", logfields.Artifact(rel), logfields.Error(err))
		s.rec.IncArtifactWriteFailure(group)
		rep.WriteFailures++
		return
	}
	m.Add(group, name, rel)
	s.rec.IncArtifactWritten(group)
	rep.ArtifactsWritten++
	slog.Debug("Wrote artifact", logfields.Artifact(rel))
}

func (s *Synthesizer) recordLoad(status document.LoadStatus) {
	switch status {
	case document.StatusFound:
		s.rec.IncDocumentResult(metrics.ResultParsed)
	case document.StatusParseFailed:
		s.rec.IncDocumentResult(metrics.ResultParseError)
	default:
		s.rec.IncDocumentResult(metrics.ResultNotFound)
	}
}

// artifactFromDocument builds the artifact payload: metadata plus the body
// under "content" and its rendered form under "contentHtml".
func artifactFromDocument(doc *document.ContentDocument) map[string]any {
	payload := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	payload["content"] = doc.Body
	if doc.Body != "" {
		if html, err := markdown.Render(doc.Body); err == nil {
			payload["contentHtml"] = html
		} else {
			slog.Warn("Failed to render document body", logfields.Path(doc.Path), logfields.Error(err))
		}
	}
	return payload
}

func serviceFromDocument(id string, doc *document.ContentDocument) content.ServiceEntity {
	fields := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		fields[k] = v
	}
	delete(fields, "id")
	delete(fields, "order")
	delete(fields, "enabled")
	fields["content"] = doc.Body
	if doc.Body != "" {
		if html, err := markdown.Render(doc.Body); err == nil {
			fields["contentHtml"] = html
		}
	}
	return content.ServiceEntity{
		ID:      id,
		Order:   content.CoerceInt(doc.Metadata["order"], 0),
		Enabled: content.CoerceBool(doc.Metadata["enabled"], true),
		Fields:  fields,
	}
}

func sortServices(services []content.ServiceEntity) {
	sort.SliceStable(services, func(i, j int) bool { return services[i].Order < services[j].Order })
}

// localize inserts the locale code before the path's extension:
// company/basic-info.md -> company/basic-info.zh-hans.md.
func localize(rel, locale string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + "." + locale + ext
}

// splitLocaleSuffix splits a filename base like "sourcing.zh-hans" into
// ("sourcing", "zh-hans") when the suffix is a known secondary locale;
// otherwise the base is returned whole with an empty locale.
func splitLocaleSuffix(base string, locales []string) (string, string) {
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return base, ""
	}
	suffix := base[idx+1:]
	for _, loc := range locales {
		if suffix == loc {
			return base[:idx], loc
		}
	}
	return base, ""
}

// artifactName derives the manifest entry name from an artifact path:
// company/basic-info.json -> basic-info.
func artifactName(rel string) string {
	base := rel[strings.LastIndex(rel, "/")+1:]
	return strings.TrimSuffix(base, ".json")
}
