package export

import (
	"fmt"

	"mindreel/mindmap"
)

// SVGExporter returns the diagram markup exactly as it was captured
type SVGExporter struct{}

// NewSVGExporter creates a new raw SVG exporter
func NewSVGExporter() *SVGExporter {
	return &SVGExporter{}
}

// Export returns the raw snapshot
func (e *SVGExporter) Export(d *mindmap.Data) (string, error) {
	if d == nil || d.SVG == "" {
		return "", fmt.Errorf("mindmap has no diagram snapshot")
	}
	return d.SVG, nil
}

// GetFileExtension returns the file extension for SVG
func (e *SVGExporter) GetFileExtension() string {
	return ".svg"
}

// GetFormatName returns the format name
func (e *SVGExporter) GetFormatName() string {
	return "SVG"
}
