package export

import (
	"fmt"
	"strings"

	"mindreel/mindmap"
)

// MermaidExporter exports the hierarchy to Mermaid mindmap syntax
type MermaidExporter struct{}

// NewMermaidExporter creates a new Mermaid exporter
func NewMermaidExporter() *MermaidExporter {
	return &MermaidExporter{}
}

// Export converts the hierarchy to a Mermaid mindmap
func (e *MermaidExporter) Export(d *mindmap.Data) (string, error) {
	if err := requireNodes(d); err != nil {
		return "", err
	}
	if d.Root == nil {
		return "", fmt.Errorf("mindmap has no root")
	}

	var sb strings.Builder
	sb.WriteString("mindmap\n")
	mindmap.Walk(d.Root, func(n *mindmap.Node, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth+1))
		if depth == 0 {
			// Root gets the circle shape
			sb.WriteString(fmt.Sprintf("root((%s))\n", e.escapeLabel(n.Text)))
		} else {
			sb.WriteString(fmt.Sprintf("%s[%s]\n", e.nodeID(n.ID), e.escapeLabel(n.Text)))
		}
		return true
	})
	return sb.String(), nil
}

// nodeID converts a node id into a Mermaid identifier
func (e *MermaidExporter) nodeID(id string) string {
	var sb strings.Builder
	sb.WriteString("n_")
	for _, r := range id {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// escapeLabel replaces characters that end a Mermaid shape
func (e *MermaidExporter) escapeLabel(text string) string {
	replacer := strings.NewReplacer(
		"(", "&#40;",
		")", "&#41;",
		"[", "&#91;",
		"]", "&#93;",
		"\n", " ",
	)
	return replacer.Replace(text)
}

// GetFileExtension returns the file extension for Mermaid
func (e *MermaidExporter) GetFileExtension() string {
	return ".mmd"
}

// GetFormatName returns the format name
func (e *MermaidExporter) GetFormatName() string {
	return "Mermaid"
}
