// Package mindmap contains the tree types shared by the extraction, planning and animation stages.
package mindmap

import (
	"time"

	"github.com/google/uuid"
)

// Node represents one concept in the mindmap.
type Node struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Level    int     `json:"level"`               // Depth, 0 for the root
	X        float64 `json:"x"`                   // Source layout coordinate
	Y        float64 `json:"y"`                   // Source layout coordinate
	ParentID string  `json:"parent_id,omitempty"` // Back-reference only, the parent owns the node
	Children []*Node `json:"children,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// AddChild attaches child under n and points its back-reference at n.
func (n *Node) AddChild(child *Node) {
	child.ParentID = n.ID
	n.Children = append(n.Children, child)
}

// Connection is an explicit parent -> child edge found in the source markup.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Data is the result of one extraction pass. It is not modified after New returns.
type Data struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Root        *Node        `json:"-"`
	Nodes       []*Node      `json:"nodes"`
	Connections []Connection `json:"connections,omitempty"`
	SVG         string       `json:"-"` // Raw diagram snapshot
	CreatedAt   time.Time    `json:"created_at"`

	index map[string]*Node
}

// New creates mindmap data with a fresh identifier and an id index over nodes.
func New(title string, root *Node, nodes []*Node, connections []Connection, svg string) *Data {
	d := &Data{
		ID:          uuid.NewString(),
		Title:       title,
		Root:        root,
		Nodes:       nodes,
		Connections: connections,
		SVG:         svg,
		CreatedAt:   time.Now(),
		index:       make(map[string]*Node, len(nodes)),
	}
	for _, n := range nodes {
		d.index[n.ID] = n
	}
	return d
}

// Node returns the node with the given id, or nil.
func (d *Data) Node(id string) *Node {
	if d == nil {
		return nil
	}
	if d.index != nil {
		return d.index[id]
	}
	for _, n := range d.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// IsEmpty returns true if no nodes were extracted.
func (d *Data) IsEmpty() bool {
	return d == nil || len(d.Nodes) == 0
}
