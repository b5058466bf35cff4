package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mindreel/mindmap"
)

// MarkdownExporter exports the hierarchy as a nested bullet list
type MarkdownExporter struct {
	now func() time.Time
}

// NewMarkdownExporter creates a new Markdown exporter
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{now: time.Now}
}

// Export writes a title heading, a generation stamp and one bullet per node.
// Without a root the nodes are listed by level, then vertical position.
func (e *MarkdownExporter) Export(d *mindmap.Data) (string, error) {
	if d == nil {
		return "", fmt.Errorf("mindmap is nil")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s - Mindmap\n", d.Title))
	sb.WriteString(fmt.Sprintf("\n*Generated: %s*\n\n", e.now().Format(time.RFC3339)))

	if d.Root != nil {
		mindmap.Walk(d.Root, func(n *mindmap.Node, depth int) bool {
			writeBullet(&sb, depth, n.Text)
			return true
		})
		return sb.String(), nil
	}

	nodes := append([]*mindmap.Node(nil), d.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Level != nodes[j].Level {
			return nodes[i].Level < nodes[j].Level
		}
		return nodes[i].Y < nodes[j].Y
	})
	for _, n := range nodes {
		writeBullet(&sb, n.Level, n.Text)
	}
	return sb.String(), nil
}

func writeBullet(sb *strings.Builder, depth int, text string) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	sb.WriteString(text)
	sb.WriteString("\n")
}

// GetFileExtension returns the file extension for Markdown
func (e *MarkdownExporter) GetFileExtension() string {
	return ".md"
}

// GetFormatName returns the format name
func (e *MarkdownExporter) GetFormatName() string {
	return "Markdown"
}
