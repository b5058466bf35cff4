// Package export writes extracted mindmaps to the artifact formats consumed downstream
package export

import (
	"fmt"
	"strings"

	"mindreel/mindmap"
)

// Format represents an export format
type Format string

const (
	// FormatJSON exports the recursive tree (the default artifact)
	FormatJSON Format = "json"
	// FormatFlat exports every node as one JSON array
	FormatFlat Format = "flat"
	// FormatMarkdown exports a bullet outline of the hierarchy
	FormatMarkdown Format = "markdown"
	// FormatMermaid exports to Mermaid mindmap syntax
	FormatMermaid Format = "mermaid"
	// FormatSVG exports the raw diagram snapshot
	FormatSVG Format = "svg"
)

// Exporter interface for different export formats
type Exporter interface {
	// Export converts mindmap data to the target format
	Export(d *mindmap.Data) (string, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatFlat:
		return NewFlatExporter(), nil
	case FormatMarkdown:
		return NewMarkdownExporter(), nil
	case FormatMermaid:
		return NewMermaidExporter(), nil
	case FormatSVG:
		return NewSVGExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "tree":
		return FormatJSON, nil
	case "flat", "nodes":
		return FormatFlat, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	case "svg", "raw":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatJSON,
		FormatFlat,
		FormatMarkdown,
		FormatMermaid,
		FormatSVG,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatJSON:     "Recursive JSON tree (mindreel native format)",
		FormatFlat:     "Flat JSON node list with parent references",
		FormatMarkdown: "Markdown bullet outline",
		FormatMermaid:  "Mermaid mindmap syntax (for Markdown)",
		FormatSVG:      "Raw diagram markup as captured",
	}
}

func requireNodes(d *mindmap.Data) error {
	if d == nil {
		return fmt.Errorf("mindmap is nil")
	}
	if d.IsEmpty() {
		return fmt.Errorf("mindmap has no nodes")
	}
	return nil
}
