//go:build !integration

package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileOpenAPISpecReadModelRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: cryptosub\n  version: 1.0.0\npaths: {}\n"), 0o600))

	content, contentType, appErr := NewFileOpenAPISpecReadModel(path).Read(context.Background())
	require.Nil(t, appErr)
	assert.Contains(t, string(content), "title: cryptosub")
	assert.Equal(t, "application/yaml; charset=utf-8", contentType)
}

func TestFileOpenAPISpecReadModelMissingFile(t *testing.T) {
	_, _, appErr := NewFileOpenAPISpecReadModel(filepath.Join(t.TempDir(), "absent.yaml")).Read(context.Background())
	require.NotNil(t, appErr)
	assert.Equal(t, "openapi_file_read_failed", appErr.Code)
}

func TestFileOpenAPISpecReadModelRejectsNonOpenAPIDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("swagger: \"2.0\"\n"), 0o600))

	_, _, appErr := NewFileOpenAPISpecReadModel(path).Read(context.Background())
	require.NotNil(t, appErr)
	assert.Equal(t, "openapi_file_invalid", appErr.Code)
}
