package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pipeerr "git.home.luguber.info/inful/contentsync/internal/errors"
)

func artifactServer(t *testing.T, artifacts map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := artifacts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_FetchedKeysWin_DefaultOnlyKeysSurvive(t *testing.T) {
	srv := artifactServer(t, map[string]string{"/company/basic-info.json": `{"b":3,"c":4}`})
	c := NewClient(srv.URL)

	res := c.Resolve(context.Background(), "company/basic-info.json", map[string]any{"a": 1, "b": 2})
	require.NoError(t, res.Err)
	require.False(t, res.Loading)
	require.Equal(t, map[string]any{"a": 1, "b": float64(3), "c": float64(4)}, res.Content)
}

func TestResolve_Non200_DefaultsUnchangedErrSet(t *testing.T) {
	srv := artifactServer(t, map[string]string{})
	c := NewClient(srv.URL)

	defaults := map[string]any{"a": 1, "b": 2}
	res := c.Resolve(context.Background(), "missing.json", defaults)
	require.Error(t, res.Err)
	require.True(t, pipeerr.IsCategory(res.Err, pipeerr.CategoryFetch))
	require.Equal(t, defaults, res.Content)
}

func TestResolve_MalformedJSON_DefaultsUnchangedErrSet(t *testing.T) {
	srv := artifactServer(t, map[string]string{"/bad.json": `{"broken":`})
	c := NewClient(srv.URL)

	res := c.Resolve(context.Background(), "bad.json", map[string]any{"a": 1})
	require.Error(t, res.Err)
	require.Equal(t, map[string]any{"a": 1}, res.Content)
}

func TestResolve_TransportFailure_DefaultsUnchangedErrSet(t *testing.T) {
	srv := artifactServer(t, nil)
	srv.Close()
	c := NewClient(srv.URL)

	res := c.Resolve(context.Background(), "any.json", map[string]any{"x": true})
	require.Error(t, res.Err)
	require.Equal(t, map[string]any{"x": true}, res.Content)
}

func TestResolve_RequestCarriesCacheBuster(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.Resolve(context.Background(), "x.json", nil)
	require.Regexp(t, `^t=\d+$`, gotQuery)
}

func TestResolveLocalized_LocaleArtifactPreferred(t *testing.T) {
	srv := artifactServer(t, map[string]string{
		"/contact/info.json":         `{"address":"Singapore"}`,
		"/contact/info.zh-hans.json": `{"address":"深圳"}`,
	})
	c := NewClient(srv.URL)

	res := c.ResolveLocalized(context.Background(), "contact/info.json", "zh-hans", nil)
	require.NoError(t, res.Err)
	require.Equal(t, "深圳", res.Content["address"])
}

func TestResolveLocalized_MissingLocale_CascadesToNeutral(t *testing.T) {
	srv := artifactServer(t, map[string]string{"/contact/info.json": `{"address":"Singapore"}`})
	c := NewClient(srv.URL)

	res := c.ResolveLocalized(context.Background(), "contact/info.json", "zh-hant", nil)
	require.NoError(t, res.Err)
	require.Equal(t, "Singapore", res.Content["address"])
}

func TestPending_LoadingStateExposesDefaults(t *testing.T) {
	res := Pending(map[string]any{"a": 1})
	require.True(t, res.Loading)
	require.Equal(t, map[string]any{"a": 1}, res.Content)
	require.NoError(t, res.Err)
}

func TestResolveAsync_SettlesOnChannel(t *testing.T) {
	srv := artifactServer(t, map[string]string{"/x.json": `{"v":1}`})
	c := NewClient(srv.URL)

	res := <-c.ResolveAsync(context.Background(), "x.json", nil)
	require.NoError(t, res.Err)
	require.Equal(t, float64(1), res.Content["v"])
}

func TestShallowMerge_DoesNotMutateInputs(t *testing.T) {
	defaults := map[string]any{"a": 1}
	fetched := map[string]any{"b": 2}

	merged := ShallowMerge(defaults, fetched)
	merged["c"] = 3
	require.NotContains(t, defaults, "c")
	require.NotContains(t, fetched, "c")
}

func TestLocalizePath_InsertsBeforeExtension(t *testing.T) {
	require.Equal(t, "company/basic-info.zh-hans.json", LocalizePath("company/basic-info.json", "zh-hans"))
	require.Equal(t, "news-index.zh-hant.json", LocalizePath("news-index.json", "zh-hant"))
	require.Equal(t, "noext.fr", LocalizePath("noext", "fr"))
}
