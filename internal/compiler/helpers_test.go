package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dxexplorer/internal/model"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func decodeNode(t *testing.T, s string) map[string]any {
	t.Helper()
	v, err := model.DecodeJSON([]byte(s))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok, "node must be an object")
	return m
}

func parseFixture(t *testing.T, name string) *Response {
	t.Helper()
	resp, err := ParseResponse(loadFixture(t, name), ParseOptions{})
	require.NoError(t, err)
	return resp
}
