package export

import (
	"encoding/json"
	"fmt"

	"mindreel/mindmap"
)

// TreeNode is the serialised form of one node. The root's parent_id is null.
type TreeNode struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	Level    int         `json:"level"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	ParentID *string     `json:"parent_id"`
	Children []*TreeNode `json:"children"`
}

// Tree converts the subtree at n. Children are always an array, empty for leaves.
func Tree(n *mindmap.Node) *TreeNode {
	if n == nil {
		return nil
	}
	t := flatNode(n)
	for _, c := range n.Children {
		t.Children = append(t.Children, Tree(c))
	}
	return t
}

func flatNode(n *mindmap.Node) *TreeNode {
	t := &TreeNode{
		ID:       n.ID,
		Text:     n.Text,
		Level:    n.Level,
		X:        n.X,
		Y:        n.Y,
		Children: []*TreeNode{},
	}
	if n.ParentID != "" {
		parent := n.ParentID
		t.ParentID = &parent
	}
	return t
}

// JSONExporter exports the hierarchy as a recursive JSON tree
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts the hierarchy to JSON
func (e *JSONExporter) Export(d *mindmap.Data) (string, error) {
	if err := requireNodes(d); err != nil {
		return "", err
	}
	if d.Root == nil {
		return "", fmt.Errorf("mindmap has no root")
	}
	return marshal(Tree(d.Root))
}

// GetFileExtension returns the file extension for JSON
func (e *JSONExporter) GetFileExtension() string {
	return ".json"
}

// GetFormatName returns the format name
func (e *JSONExporter) GetFormatName() string {
	return "JSON"
}

// FlatExporter exports every node in extraction order without nesting
type FlatExporter struct{}

// NewFlatExporter creates a new flat JSON exporter
func NewFlatExporter() *FlatExporter {
	return &FlatExporter{}
}

// Export converts the node list to a JSON array
func (e *FlatExporter) Export(d *mindmap.Data) (string, error) {
	if err := requireNodes(d); err != nil {
		return "", err
	}
	return marshal(flatNodes(d.Nodes))
}

// GetFileExtension returns the file extension for flat JSON
func (e *FlatExporter) GetFileExtension() string {
	return ".nodes.json"
}

// GetFormatName returns the format name
func (e *FlatExporter) GetFormatName() string {
	return "Flat JSON"
}

type flatEntry struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Level    int     `json:"level"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ParentID *string `json:"parent_id"`
}

func flatNodes(nodes []*mindmap.Node) []flatEntry {
	out := make([]flatEntry, len(nodes))
	for i, n := range nodes {
		t := flatNode(n)
		out[i] = flatEntry{ID: t.ID, Text: t.Text, Level: t.Level, X: t.X, Y: t.Y, ParentID: t.ParentID}
	}
	return out
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
