package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentsync/internal/resolver"
)

func TestDeepMerge_ArrayReplacedWholesale_SiblingPreserved(t *testing.T) {
	base := map[string]any{"x": map[string]any{"y": []any{9}, "z": 1}}
	overlay := map[string]any{"x": map[string]any{"y": []any{1, 2}}}

	merged := DeepMerge(base, overlay)
	require.Equal(t, map[string]any{"x": map[string]any{"y": []any{1, 2}, "z": 1}}, merged)
}

func TestDeepMerge_ScalarReplacesNestedMap(t *testing.T) {
	base := map[string]any{"nav": map[string]any{"home": "Home"}}
	overlay := map[string]any{"nav": "disabled"}

	merged := DeepMerge(base, overlay)
	require.Equal(t, "disabled", merged["nav"])
}

func TestDeepMerge_RecursesThroughNestedMaps(t *testing.T) {
	base := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "keep": true}}}
	overlay := map[string]any{"a": map[string]any{"b": map[string]any{"c": 2}}}

	merged := DeepMerge(base, overlay)
	inner := merged["a"].(map[string]any)["b"].(map[string]any)
	require.Equal(t, 2, inner["c"])
	require.Equal(t, true, inner["keep"])
}

func TestDeepMerge_InputsNotMutated(t *testing.T) {
	base := map[string]any{"a": map[string]any{"b": 1}}
	overlay := map[string]any{"a": map[string]any{"c": 2}}

	_ = DeepMerge(base, overlay)
	require.NotContains(t, base["a"].(map[string]any), "c")
	require.NotContains(t, overlay["a"].(map[string]any), "b")
}

func TestMerger_FragmentsMergeOntoBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pages/home-content.json":
			_, _ = w.Write([]byte(`{"hero":{"headline":"From CMS"}}`))
		case "/pages/footer-content.json":
			_, _ = w.Write([]byte(`{"footer":{"copyright":"© CMS"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	base := map[string]map[string]any{
		"en": {"hero": map[string]any{"headline": "Compiled", "tagline": "Stays"}},
	}
	m := NewMerger(resolver.NewClient(srv.URL), base, []string{"pages/home-content.json", "pages/footer-content.json"})

	dict := m.Resources(context.Background(), "en")
	hero := dict["hero"].(map[string]any)
	require.Equal(t, "From CMS", hero["headline"])
	require.Equal(t, "Stays", hero["tagline"])
	require.Equal(t, "© CMS", dict["footer"].(map[string]any)["copyright"])
}

func TestMerger_UnavailableFragment_BaseSurvives(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	base := map[string]map[string]any{"en": {"nav": map[string]any{"home": "Home"}}}
	m := NewMerger(resolver.NewClient(srv.URL), base, []string{"pages/home-content.json"})

	dict := m.Resources(context.Background(), "en")
	require.Equal(t, "Home", dict["nav"].(map[string]any)["home"])
}

func TestMerger_ComputedOncePerLocale(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	m := NewMerger(resolver.NewClient(srv.URL), nil, []string{"pages/home-content.json"})
	m.Resources(context.Background(), "en")
	first := calls.Load()
	m.Resources(context.Background(), "en")
	require.Equal(t, first, calls.Load())
}

func TestMerger_SlowLocaleFetchDoesNotBlockOtherLocales(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	releaseSlow := func() { once.Do(func() { close(release) }) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ".zh-hans.") {
			<-release
		}
		_, _ = w.Write([]byte(`{"greeting":"hello"}`))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(releaseSlow)

	base := map[string]map[string]any{
		"zh-hans": {"greeting": "base"},
		"en":      {"greeting": "base"},
	}
	m := NewMerger(resolver.NewClient(srv.URL), base, []string{"pages/home-content.json"})

	slowDone := make(chan struct{})
	go func() {
		m.Resources(context.Background(), "zh-hans")
		close(slowDone)
	}()
	// Let the zh-hans goroutine reach its blocked fetch.
	time.Sleep(20 * time.Millisecond)

	enDone := make(chan map[string]any, 1)
	go func() { enDone <- m.Resources(context.Background(), "en") }()

	select {
	case dict := <-enDone:
		require.Equal(t, "hello", dict["greeting"])
	case <-time.After(2 * time.Second):
		t.Fatal("en lookup blocked behind zh-hans fetch")
	}

	releaseSlow()
	select {
	case <-slowDone:
	case <-time.After(2 * time.Second):
		t.Fatal("zh-hans lookup never settled")
	}
}

func TestMerger_UnknownLocale_EmptyBaseStillUsable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	m := NewMerger(resolver.NewClient(srv.URL), nil, nil)
	dict := m.Resources(context.Background(), "fr")
	require.NotNil(t, dict)
	require.Empty(t, dict)
}
