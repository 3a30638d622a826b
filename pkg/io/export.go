package io

import (
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/view"
)

// ExportJSON writes g to a lineage JSON file at path.
func ExportJSON(g *lineage.Graph, path string) error {
	return exportWith(path, func(w io.Writer) error { return WriteJSON(g, w) })
}

// ExportView writes v to a view JSON file at path.
func ExportView(v view.View, path string) error {
	return exportWith(path, func(w io.Writer) error { return WriteView(v, w) })
}

func exportWith(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
