package docs

import (
	"context"
	"os"
	"strings"

	apperrors "cryptosub/internal/shared_kernel/errors"

	"gopkg.in/yaml.v2"
)

// FileOpenAPISpecReadModel serves the API document from disk. The file is re-read on every
// request so edits show up without a restart.
type FileOpenAPISpecReadModel struct {
	path string
}

type openAPIHeader struct {
	OpenAPI string `yaml:"openapi"`
	Info    struct {
		Title string `yaml:"title"`
	} `yaml:"info"`
}

func NewFileOpenAPISpecReadModel(path string) *FileOpenAPISpecReadModel {
	return &FileOpenAPISpecReadModel{
		path: path,
	}
}

func (r *FileOpenAPISpecReadModel) Read(_ context.Context) ([]byte, string, *apperrors.AppError) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return nil, "", apperrors.NewInternal(
			"openapi_file_read_failed",
			"failed to read OpenAPI spec file",
			map[string]any{"path": r.path},
		)
	}

	var header openAPIHeader
	if err := yaml.Unmarshal(content, &header); err != nil || !strings.HasPrefix(header.OpenAPI, "3.") {
		return nil, "", apperrors.NewInternal(
			"openapi_file_invalid",
			"OpenAPI spec file is not an OpenAPI 3 document",
			map[string]any{"path": r.path},
		)
	}

	return content, "application/yaml; charset=utf-8", nil
}
