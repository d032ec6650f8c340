// Package schema assembles the datamodel payload of a service definition by
// concatenating the referenced files into a single schema string.
package schema

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	apperrors "stagectl/internal/errors"
)

// Assemble reads every datamodel path relative to baseDir and concatenates the
// contents in order, each followed by a newline. It stops at the first missing
// file; no partial result is returned.
func Assemble(fs afero.Fs, baseDir string, paths []string) (string, error) {
	var builder strings.Builder

	for _, path := range paths {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(baseDir, path)
		}

		exists, err := afero.Exists(fs, full)
		if err != nil {
			return "", fmt.Errorf("failed to check datamodel file %s: %w", full, err)
		}
		if !exists {
			return "", &apperrors.SchemaFileNotFoundError{Path: path}
		}

		content, err := afero.ReadFile(fs, full)
		if err != nil {
			return "", fmt.Errorf("failed to read datamodel file %s: %w", full, err)
		}

		builder.Write(content)
		builder.WriteByte('\n')
	}

	return builder.String(), nil
}
