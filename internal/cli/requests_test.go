package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequests(t *testing.T) {
	data := []byte(`
requests:
  - target: https://example.com/a
  - target: https://example.com/b
    key: audit
    options:
      method: POST
      timeout: 2s
      headers:
        X-Trace: abc
`)
	reqs, err := ParseRequests(data)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "https://example.com/a", reqs[0].Target)
	assert.Empty(t, reqs[0].Key)
	assert.Equal(t, "audit", reqs[1].Key)
	assert.Equal(t, "POST", reqs[1].Options["method"])
	assert.Equal(t, "2s", reqs[1].Options["timeout"])
	assert.Equal(t, map[string]any{"X-Trace": "abc"}, reqs[1].Options["headers"])
}

func TestParseRequestsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing target", "requests:\n  - key: k\n", "target is required"},
		{"unknown field", "requests:\n  - target: a\n    url: b\n", "parse request file"},
		{"not yaml", "requests: [", "parse request file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequests([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRequestsEmpty(t *testing.T) {
	reqs, err := ParseRequests(nil)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestCollectRequests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.yaml")
	require.NoError(t, os.WriteFile(path, []byte("requests:\n  - target: from-file\n"), 0o644))

	reqs, err := collectRequests(path, []string{"from-args"})
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "from-file", reqs[0].Target)
	assert.Equal(t, "from-args", reqs[1].Target)

	_, err = collectRequests(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = collectRequests("", nil)
	assert.Error(t, err)
}
