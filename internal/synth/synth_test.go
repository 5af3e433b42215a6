package synth

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentsync/internal/artifact"
	"git.home.luguber.info/inful/contentsync/internal/config"
	"git.home.luguber.info/inful/contentsync/internal/manifest"
	"git.home.luguber.info/inful/contentsync/internal/metrics"
)

func testConfig(t *testing.T) (*config.Config, string, string) {
	t.Helper()
	contentDir := filepath.Join(t.TempDir(), "content")
	outDir := filepath.Join(t.TempDir(), "public", "content")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))

	cfg := &config.Config{
		Content: config.ContentConfig{Dir: contentDir},
		Output:  config.OutputConfig{Dir: outDir},
		Locales: config.LocaleConfig{Primary: "en", Secondary: []string{"zh-hans", "zh-hant"}},
	}
	cfg.ApplyDefaults()
	cfg.Content.Dir = contentDir
	cfg.Output.Dir = outDir
	return cfg, contentDir, outDir
}

func runSynth(t *testing.T, cfg *config.Config) (*Report, *manifest.Manifest) {
	t.Helper()
	w, err := artifact.NewWriter(cfg.Output.Dir)
	require.NoError(t, err)

	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := New(cfg, w, WithClock(func() time.Time { return fixed }))
	m := manifest.New("test", fixed)
	rep, err := s.Run(context.Background(), m)
	require.NoError(t, err)
	return rep, m
}

func readArtifact(t *testing.T, outDir, rel string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func writeSource(t *testing.T, contentDir, rel, body string) {
	t.Helper()
	path := filepath.Join(contentDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRun_NoSources_EveryPrimaryArtifactFromDefaults(t *testing.T) {
	cfg, _, outDir := testConfig(t)
	rep, _ := runSynth(t, cfg)
	require.Zero(t, rep.WriteFailures)

	for _, e := range config.Entities() {
		payload := readArtifact(t, outDir, e.Artifact)
		for k, want := range e.Defaults {
			data, err := json.Marshal(want)
			require.NoError(t, err)
			got, err := json.Marshal(payload[k])
			require.NoError(t, err)
			require.JSONEq(t, string(data), string(got), "entity %s key %s", e.Name, k)
		}
	}
}

func TestRun_NoSecondarySource_NoLocaleArtifact(t *testing.T) {
	cfg, _, outDir := testConfig(t)
	runSynth(t, cfg)

	for _, e := range config.Entities() {
		for _, loc := range cfg.Locales.Secondary {
			locPath := filepath.Join(outDir, filepath.FromSlash(localize(e.Artifact, loc)))
			_, err := os.Stat(locPath)
			require.True(t, os.IsNotExist(err), "unexpected locale artifact for %s/%s", e.Name, loc)
		}
	}
}

func TestRun_DocumentPresent_MetadataPlusContent(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "company/basic-info.md", "---\nname: Acme Trading\nfounded: \"1999\"\n---\nWe trade **goods**.\n")

	runSynth(t, cfg)

	payload := readArtifact(t, outDir, "company/basic-info.json")
	require.Equal(t, "Acme Trading", payload["name"])
	require.Equal(t, "1999", payload["founded"])
	require.Equal(t, "We trade **goods**.", payload["content"])
	require.Contains(t, payload["contentHtml"], "<strong>goods</strong>")
}

func TestRun_SecondaryDocumentPresent_LocaleArtifactWritten(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "contact/info.zh-hans.md", "---\naddress: 深圳市南山区\n---\n")

	runSynth(t, cfg)

	payload := readArtifact(t, outDir, "contact/info.zh-hans.json")
	require.Equal(t, "深圳市南山区", payload["address"])

	// The other secondary locale stays absent.
	_, err := os.Stat(filepath.Join(outDir, "contact", "info.zh-hant.json"))
	require.True(t, os.IsNotExist(err))
}

func TestRun_TeamMembersWithoutMembers_DefaultsUsed(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "company/team-members.md", "---\ntitle: Our Team\n---\nIntro only, no roster yet.\n")

	runSynth(t, cfg)

	payload := readArtifact(t, outDir, "company/team-members.json")
	members, ok := payload["members"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, members)
	require.NotContains(t, payload, "title")
}

func TestRun_TeamMembersWithMembers_DocumentUsed(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "company/team-members.md", "---\nmembers:\n  - name: Ana\n    role: CEO\n---\n")

	runSynth(t, cfg)

	payload := readArtifact(t, outDir, "company/team-members.json")
	members := payload["members"].([]any)
	require.Len(t, members, 1)
	require.Equal(t, "Ana", members[0].(map[string]any)["name"])
}

func TestRun_NoServiceDocuments_DefaultPairEverywhere(t *testing.T) {
	cfg, _, outDir := testConfig(t)
	runSynth(t, cfg)

	index := readArtifact(t, outDir, "services/index.json")
	services := index["services"].([]any)
	require.Len(t, services, 2)
	require.Equal(t, float64(2), index["total"])
	require.Equal(t, "2025-06-01T00:00:00Z", index["generated"])

	first := readArtifact(t, outDir, "services/global-sourcing.json")
	require.Equal(t, "global-sourcing", first["id"])
}

func TestRun_ServicesSortedByOrderAscending(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "services/freight.md", "---\ntitle: Freight\norder: 2\n---\n")
	writeSource(t, contentDir, "services/audit.md", "---\ntitle: Audit\norder: 1\n---\n")

	runSynth(t, cfg)

	index := readArtifact(t, outDir, "services/index.json")
	services := index["services"].([]any)
	require.Len(t, services, 2)
	require.Equal(t, "audit", services[0].(map[string]any)["id"])
	require.Equal(t, "freight", services[1].(map[string]any)["id"])
}

func TestRun_LocaleServices_OnlyFromExistingLocaleDocs(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "services/freight.md", "---\norder: 1\n---\n")
	writeSource(t, contentDir, "services/freight.zh-hans.md", "---\norder: 1\ntitle: 货运\n---\n")

	runSynth(t, cfg)

	locIndex := readArtifact(t, outDir, "services/index.zh-hans.json")
	require.Equal(t, float64(1), locIndex["total"])
	locSvc := readArtifact(t, outDir, "services/freight.zh-hans.json")
	require.Equal(t, "货运", locSvc["title"])

	// Primary index must not absorb locale documents.
	index := readArtifact(t, outDir, "services/index.json")
	require.Equal(t, float64(1), index["total"])

	// No zh-hant documents, so no zh-hant index.
	_, err := os.Stat(filepath.Join(outDir, "services", "index.zh-hant.json"))
	require.True(t, os.IsNotExist(err))
}

func TestRun_ParseFailure_TreatedAsMissing(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "contact/info.md", "---\nbroken: [\n---\n")

	rep, _ := runSynth(t, cfg)
	require.Zero(t, rep.WriteFailures)

	payload := readArtifact(t, outDir, "contact/info.json")
	require.Equal(t, "trade@orientcrest.example", payload["email"])
}

func TestRun_Idempotent_ByteIdenticalWithFixedClock(t *testing.T) {
	cfg, contentDir, outDir := testConfig(t)
	writeSource(t, contentDir, "company/basic-info.md", "---\nname: Acme\n---\nBody.\n")
	writeSource(t, contentDir, "services/audit.md", "---\norder: 1\n---\n")

	runSynth(t, cfg)
	snapshot := map[string][]byte{}
	require.NoError(t, filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		snapshot[path] = data
		return nil
	}))
	require.NotEmpty(t, snapshot)

	runSynth(t, cfg)
	for path, before := range snapshot {
		after, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, before, after, "artifact %s changed between identical runs", path)
	}
}

func TestRun_ManifestListsEveryWrittenArtifact(t *testing.T) {
	cfg, contentDir, _ := testConfig(t)
	writeSource(t, contentDir, "company/basic-info.zh-hans.md", "---\nname: 公司\n---\n")

	rep, m := runSynth(t, cfg)

	total := 0
	for _, n := range m.Stats {
		total += n
	}
	require.Equal(t, rep.ArtifactsWritten, total)
	require.Equal(t, "company/basic-info.zh-hans.json", m.Collections["company"]["basic-info.zh-hans"])
}

// stageRecorder captures observed stage durations.
type stageRecorder struct {
	metrics.NoopRecorder
	stages map[string]time.Duration
}

func (r *stageRecorder) ObserveStageDuration(stage string, d time.Duration) {
	r.stages[stage] = d
}

func TestRun_DurationsComeFromInjectedClock(t *testing.T) {
	cfg, _, _ := testConfig(t)
	w, err := artifact.NewWriter(cfg.Output.Dir)
	require.NoError(t, err)

	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := &stageRecorder{stages: map[string]time.Duration{}}
	s := New(cfg, w, WithClock(func() time.Time { return fixed }), WithRecorder(rec))

	rep, err := s.Run(context.Background(), manifest.New("test", fixed))
	require.NoError(t, err)

	// A frozen clock must yield zero durations, not wall-clock deltas.
	require.Equal(t, time.Duration(0), rep.Duration)
	require.Equal(t, time.Duration(0), rec.stages["entities"])
	require.Equal(t, time.Duration(0), rec.stages["services"])
}
