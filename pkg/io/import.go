package io

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/stacklineage/pkg/errors"
	"github.com/matzehuels/stacklineage/pkg/lineage"
)

// Import reads a graph file, choosing the decoder by extension: ".json" for
// Marquez lineage JSON and ".toml" for hand-written fixtures.
func Import(path string) (*lineage.Graph, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ImportJSON(path)
	case ".toml":
		return ImportTOML(path)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported graph file %s (want .json or .toml)", path)
	}
}

// ImportJSON reads a lineage JSON file at path. A missing file is a
// FILE_NOT_FOUND error; decoding errors are those of [ReadJSON].
func ImportJSON(path string) (*lineage.Graph, error) {
	return importWith(path, ReadJSON)
}

// ImportTOML reads a lineage TOML file at path.
func ImportTOML(path string) (*lineage.Graph, error) {
	return importWith(path, ReadTOML)
}

func importWith(path string, read func(io.Reader) (*lineage.Graph, error)) (*lineage.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return read(f)
}
