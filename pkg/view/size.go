package view

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/stacklineage/pkg/lineage"
)

// Sizing constants. Text metrics are approximated with an average glyph width
// of 0.7 × font size.
const (
	NodeWidth = 112.0

	FontSize   = 8.0
	LineHeight = 1.2
	charWidth  = 0.7

	jobTextWidth     = 80.0
	datasetTextWidth = 62.0

	minHeight        = 24.0
	minDatasetHeight = 34.0
	paddingTop       = 10.0
	paddingBottom    = 2.0
	fieldsPadding    = 4.0
	fieldHeight      = 10.0
)

// TextHeight estimates the height of text wrapped to availableWidth at the
// default font size and line height.
func TextHeight(text string, availableWidth float64) float64 {
	return TextHeightFont(text, availableWidth, FontSize, LineHeight)
}

// TextHeightFont is TextHeight with an explicit font size and line height.
// Empty text counts as one line. Text length is measured in runes.
func TextHeightFont(text string, availableWidth, fontSize, lineHeight float64) float64 {
	charsPerLine := math.Floor(availableWidth / (fontSize * charWidth))
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	lines := math.Max(1, math.Ceil(float64(utf8.RuneCountInString(text))/charsPerLine))
	return lines * fontSize * lineHeight
}

// Size returns the width and height of n under opts.
func Size(n *lineage.Node, opts Options) (width, height float64) {
	switch n.Kind() {
	case lineage.KindJob:
		return NodeWidth, jobHeight(n.Payload.Name())
	case lineage.KindDataset:
		ds, _ := n.Payload.Dataset()
		if opts.Compact || opts.IsCollapsed(n.ID) {
			return NodeWidth, compactDatasetHeight(n.Payload.Name())
		}
		fields := 0
		if ds != nil {
			fields = len(ds.Fields)
		}
		return NodeWidth, expandedDatasetHeight(n.Payload.Name(), fields)
	default:
		return NodeWidth, minHeight
	}
}

func jobHeight(name string) float64 {
	return math.Max(minHeight, paddingTop+TextHeight(name, jobTextWidth)+paddingBottom)
}

func compactDatasetHeight(name string) float64 {
	return math.Max(minHeight, paddingTop+TextHeight(name, datasetTextWidth)+paddingBottom)
}

func expandedDatasetHeight(name string, fields int) float64 {
	fh := float64(fields) * fieldHeight
	return math.Max(minDatasetHeight+fh, paddingTop+TextHeight(name, datasetTextWidth)+fh+fieldsPadding)
}
