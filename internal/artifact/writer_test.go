package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSON_CreatesNestedPath(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "content"))
	require.NoError(t, err)

	require.NoError(t, w.WriteJSON("company/basic-info.json", map[string]any{"name": "X"}))

	data, err := os.ReadFile(filepath.Join(w.Root(), "company", "basic-info.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"X"}`, string(data))
}

func TestWriteJSON_SortedKeysAreDeterministic(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	payload := map[string]any{"zebra": 1, "alpha": 2, "mid": map[string]any{"b": 1, "a": 2}}
	require.NoError(t, w.WriteJSON("one.json", payload))
	require.NoError(t, w.WriteJSON("two.json", payload))

	one, err := os.ReadFile(filepath.Join(w.Root(), "one.json"))
	require.NoError(t, err)
	two, err := os.ReadFile(filepath.Join(w.Root(), "two.json"))
	require.NoError(t, err)
	require.Equal(t, one, two)
}

func TestNewWriter_UncreatableRoot_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewWriter(filepath.Join(file, "sub"))
	require.Error(t, err)
}
