package importer

import (
	"bufio"
	"strings"

	"mindreel/mindmap"
)

// outlineRowHeight spaces synthesised y coordinates so siblings keep their order
const outlineRowHeight = 80.0

// OutlineImporter reads a Markdown bullet outline, one node per bullet,
// nested by two-space indentation.
type OutlineImporter struct {
	opts Options
}

// NewOutlineImporter creates a new outline importer
func NewOutlineImporter(opts Options) *OutlineImporter {
	return &OutlineImporter{opts: opts.withDefaults()}
}

// CanImport checks for at least one Markdown bullet line
func (o *OutlineImporter) CanImport(content string) bool {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return false
	}
	for _, line := range strings.Split(content, "\n") {
		if _, _, ok := parseBullet(line); ok {
			return true
		}
	}
	return false
}

// GetFormatName returns the format name
func (o *OutlineImporter) GetFormatName() string {
	return "Outline"
}

// GetFileExtensions returns common Markdown file extensions
func (o *OutlineImporter) GetFileExtensions() []string {
	return []string{".md", ".markdown"}
}

// Import converts bullets to nodes with explicit parent edges. Coordinates are
// synthesised from the level bands so geometric tooling still works.
func (o *OutlineImporter) Import(content string) (*Extraction, error) {
	ext := &Extraction{}
	var parents []*mindmap.Node // parents[i] is the last node seen at level i

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()

		if ext.Title == "" && strings.HasPrefix(line, "# ") {
			ext.Title = strings.TrimSuffix(strings.TrimSpace(line[2:]), " - Mindmap")
			continue
		}

		level, text, ok := parseBullet(line)
		if !ok || len([]rune(text)) < o.opts.MinTextLength {
			continue
		}

		// A bullet indented deeper than its predecessor allows hangs off the deepest open level
		if level > len(parents) {
			level = len(parents)
		}
		if len(parents) == 0 {
			level = 0
		}

		node := &mindmap.Node{
			ID:    mindmap.NodeID(len(ext.Nodes)),
			Text:  text,
			Level: level,
			X:     o.opts.Bands.Start(level),
			Y:     float64(len(ext.Nodes)) * outlineRowHeight,
		}
		if level > 0 {
			ext.Connections = append(ext.Connections, mindmap.Connection{Source: parents[level-1].ID, Target: node.ID})
		}

		parents = append(parents[:level], node)
		ext.Nodes = append(ext.Nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	ext.Selected = len(ext.Nodes) > 0
	return ext, nil
}

// parseBullet returns the nesting level and text of a "- item" or "* item" line
func parseBullet(line string) (int, string, bool) {
	body := strings.TrimLeft(line, " \t")
	indent := 0
	for _, r := range line[:len(line)-len(body)] {
		if r == '\t' {
			indent += 2
		} else {
			indent++
		}
	}

	if !strings.HasPrefix(body, "- ") && !strings.HasPrefix(body, "* ") {
		return 0, "", false
	}
	text := strings.TrimSpace(body[2:])
	if text == "" {
		return 0, "", false
	}
	return indent / 2, text, true
}
