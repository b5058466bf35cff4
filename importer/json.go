package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"mindreel/mindmap"
)

// JSONImporter reloads an extraction saved by the json exporters.
// It accepts a bundle document, a bare tree or a flat node array.
type JSONImporter struct{}

// NewJSONImporter creates a new JSON importer
func NewJSONImporter() *JSONImporter {
	return &JSONImporter{}
}

type jsonNode struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Level    int         `json:"level"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	ParentID *string     `json:"parent_id"`
	Children []*jsonNode `json:"children"`
}

type jsonDocument struct {
	Title         string               `json:"title"`
	NotebookTitle string               `json:"notebook_title"`
	Nodes         []*jsonNode          `json:"nodes"`
	Connections   []mindmap.Connection `json:"connections"`
	Hierarchy     *jsonNode            `json:"hierarchy"`

	// Present when the document is itself a tree
	jsonNode
}

// CanImport checks if content is a JSON object or array
func (j *JSONImporter) CanImport(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// GetFormatName returns the format name
func (j *JSONImporter) GetFormatName() string {
	return "JSON"
}

// GetFileExtensions returns common JSON file extensions
func (j *JSONImporter) GetFileExtensions() []string {
	return []string{".json"}
}

// Import decodes the document and flattens it into nodes plus parent edges
func (j *JSONImporter) Import(content string) (*Extraction, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return &Extraction{}, nil
	}

	var doc jsonDocument
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &doc.Nodes); err != nil {
			return nil, fmt.Errorf("failed to parse node array: %w", err)
		}
	} else if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse mindmap document: %w", err)
	}

	title := doc.NotebookTitle
	if title == "" {
		title = doc.Title
	}

	var flat []*jsonNode
	var connections []mindmap.Connection
	switch {
	case len(doc.Nodes) > 0:
		flat = doc.Nodes
		connections = doc.Connections
		if len(connections) == 0 {
			for _, n := range flat {
				if n.ParentID != nil && *n.ParentID != "" {
					connections = append(connections, mindmap.Connection{Source: *n.ParentID, Target: n.ID})
				}
			}
		}
	case doc.Hierarchy != nil:
		flat, connections = flattenTree(doc.Hierarchy)
	case doc.ID != "" || doc.Text != "":
		root := doc.jsonNode
		flat, connections = flattenTree(&root)
	}

	nodes := make([]*mindmap.Node, 0, len(flat))
	for _, n := range flat {
		nodes = append(nodes, &mindmap.Node{
			ID:    n.ID,
			Text:  n.Text,
			Level: n.Level,
			X:     n.X,
			Y:     n.Y,
		})
	}
	if mindmap.EnsureUniqueNodeIDs(nodes) {
		// Edges referred to the old ids
		connections = nil
	}

	return &Extraction{
		Title:       title,
		Nodes:       nodes,
		Connections: connections,
		Selected:    len(nodes) > 0,
	}, nil
}

// flattenTree lists a tree pre-order and records each parent edge
func flattenTree(root *jsonNode) ([]*jsonNode, []mindmap.Connection) {
	var flat []*jsonNode
	var connections []mindmap.Connection

	var visit func(n *jsonNode)
	visit = func(n *jsonNode) {
		flat = append(flat, n)
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			connections = append(connections, mindmap.Connection{Source: n.ID, Target: c.ID})
			visit(c)
		}
	}
	visit(root)
	return flat, connections
}
