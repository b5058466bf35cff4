package importer

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadNotebookSVG(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/notebook_mindmap.svg")
	require.NoError(t, err)
	return string(data)
}

func TestSVGImporterNotebookMarkup(t *testing.T) {
	imp := NewSVGImporter(DefaultOptions())
	ext, err := imp.Import(loadNotebookSVG(t))
	require.NoError(t, err)
	require.True(t, ext.Selected)
	require.Len(t, ext.Nodes, 6)

	root := ext.Nodes[0]
	assert.Equal(t, "Private & Corporate LLM Masterclass", root.Text)
	assert.Equal(t, 0.0, root.X)
	assert.Equal(t, 0.0, root.Y)
	assert.Equal(t, 0, root.Level)

	want := []string{
		"Einführung & Notwendigkeit",
		"Grundlagen & Definitionen",
		"Technische Basis & Hardware",
		"Praktische Use Cases",
		"Geschäftliche Chancen",
	}
	for i, text := range want {
		n := ext.Nodes[i+1]
		assert.Equal(t, text, n.Text)
		assert.InDelta(t, 460.38, n.X, 0.01)
		assert.Equal(t, 1, n.Level)
		assert.Equal(t, fmt.Sprintf("node_%d", i+1), n.ID)
	}
	assert.Equal(t, -160.0, ext.Nodes[1].Y)
	assert.Equal(t, 160.0, ext.Nodes[5].Y)

	// Notebook links carry no endpoints
	assert.Empty(t, ext.Connections)
}

func TestSVGImporterNodeCount(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<svg><g>`)
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&b, `<g class="node" transform="translate(%d, %d)"><text class="node-name">Concept %d</text></g>`, i*100, i*10, i)
	}
	// Too short to count
	b.WriteString(`<g class="node" transform="translate(5,5)"><text class="node-name">x</text></g>`)
	b.WriteString(`<path class="link" d="M0 0"/></g></svg>`)

	ext, err := NewSVGImporter(DefaultOptions()).Import(b.String())
	require.NoError(t, err)
	assert.Len(t, ext.Nodes, 7)
}

func TestSVGImporterEntitiesAndFallbackText(t *testing.T) {
	markup := `<svg><g class="node" id="a" transform="translate(0 0)">` +
		`<text>Q&amp;A &lt;live&gt; &quot;now&quot;</text>` +
		`<text class="expand-symbol">&gt;</text></g>` +
		`<path class="link" data-source="a" data-target="b"></path>` +
		`<g class="node" id="b" transform="translate(200,40)"><text class="node-name">  Child
		 node </text></g></svg>`

	ext, err := NewSVGImporter(DefaultOptions()).Import(markup)
	require.NoError(t, err)
	require.Len(t, ext.Nodes, 2)

	assert.Equal(t, "a", ext.Nodes[0].ID)
	assert.Equal(t, `Q&A <live> "now"`, ext.Nodes[0].Text)
	assert.Equal(t, "Child node", ext.Nodes[1].Text)
	assert.Equal(t, 40.0, ext.Nodes[1].Y)
	assert.Equal(t, 1, ext.Nodes[1].Level)

	require.Len(t, ext.Connections, 1)
	assert.Equal(t, "a", ext.Connections[0].Source)
	assert.Equal(t, "b", ext.Connections[0].Target)
}

func TestSVGImporterDecorativeOnly(t *testing.T) {
	markup := `<div><svg class="gb_E" focusable="false" viewBox="0 0 24 24"><path d="M6 10c"/></svg>` +
		`<svg viewBox="0 0 24 24"><circle r="4"/></svg></div>`

	ext, err := NewSVGImporter(DefaultOptions()).Import(markup)
	require.NoError(t, err)
	assert.False(t, ext.Selected)
	assert.Empty(t, ext.Nodes)
}

func TestSVGImporterEmptyInput(t *testing.T) {
	imp := NewSVGImporter(DefaultOptions())
	for _, in := range []string{"", "<svg></svg>", "   "} {
		ext, err := imp.Import(in)
		require.NoError(t, err)
		assert.Empty(t, ext.Nodes)
	}
}

func TestSelectDiagram(t *testing.T) {
	icon := `<svg class="gb_A" ><g class="node"></g><path class="link"/></svg>`
	small := `<svg><g class="node"></g></svg>`
	linked := `<svg><g class="node"></g><path class="link"/></svg>`
	large := `<svg><g class="node"></g>` + strings.Repeat(" ", 6000) + `</svg>`

	got, ok := SelectDiagram([]string{icon, large, linked}, 5000)
	assert.True(t, ok)
	assert.Equal(t, linked, got, "link markers beat size")

	got, ok = SelectDiagram([]string{small, large}, 5000)
	assert.True(t, ok)
	assert.Equal(t, large, got)

	_, ok = SelectDiagram([]string{small, icon}, 5000)
	assert.False(t, ok)
}

func TestSplitCandidates(t *testing.T) {
	page := `<html><body><svg id="one"><svg id="nested"></svg></svg><p>text</p><svg id="two"/></body></html>`
	got := SplitCandidates(page)
	require.Len(t, got, 2)
	assert.Equal(t, `<svg id="one"><svg id="nested"></svg></svg>`, got[0])
	assert.Equal(t, `<svg id="two"/>`, got[1])

	assert.Equal(t, []string{`<g class="node"></g>`}, SplitCandidates(`<g class="node"></g>`))
	assert.Nil(t, SplitCandidates(""))
}

func TestParseTranslate(t *testing.T) {
	tests := []struct {
		in   string
		x, y float64
	}{
		{"translate(460.3797912597656, -160)", 460.3797912597656, -160},
		{"translate(10 20) scale(0.9)", 10, 20},
		{"translate(-30.5)", -30.5, 0},
		{"scale(2)", 0, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		x, y := parseTranslate(tt.in)
		assert.Equal(t, tt.x, x, tt.in)
		assert.Equal(t, tt.y, y, tt.in)
	}
}

func TestJSONImporterBundle(t *testing.T) {
	doc := `{
  "notebook_id": "abc",
  "notebook_title": "Course",
  "nodes": [
    {"id": "r", "text": "Root", "level": 0, "x": 0, "y": 0, "parent_id": null},
    {"id": "c", "text": "Child", "level": 1, "x": 400, "y": 10, "parent_id": "r"}
  ]
}`
	imp := NewJSONImporter()
	require.True(t, imp.CanImport(doc))

	ext, err := imp.Import(doc)
	require.NoError(t, err)
	assert.Equal(t, "Course", ext.Title)
	require.Len(t, ext.Nodes, 2)
	assert.Equal(t, "Child", ext.Nodes[1].Text)
	assert.Equal(t, 400.0, ext.Nodes[1].X)
	require.Len(t, ext.Connections, 1)
	assert.Equal(t, "r", ext.Connections[0].Source)
	assert.Equal(t, "c", ext.Connections[0].Target)
}

func TestJSONImporterTree(t *testing.T) {
	doc := `{"id": "r", "text": "Root", "children": [
		{"id": "a", "text": "Alpha", "children": [{"id": "a1", "text": "Alpha one"}]},
		{"id": "b", "text": "Beta"}
	]}`

	ext, err := NewJSONImporter().Import(doc)
	require.NoError(t, err)
	require.Len(t, ext.Nodes, 4)
	assert.Equal(t, []string{"r", "a", "a1", "b"}, []string{ext.Nodes[0].ID, ext.Nodes[1].ID, ext.Nodes[2].ID, ext.Nodes[3].ID})
	assert.Len(t, ext.Connections, 3)
}

func TestJSONImporterInvalid(t *testing.T) {
	_, err := NewJSONImporter().Import(`{"nodes": [}`)
	assert.Error(t, err)
}

func TestOutlineImporter(t *testing.T) {
	md := `# Private & Corporate LLM Masterclass - Mindmap

*Generated: 2026-01-02T10:00:00Z*

- Private & Corporate LLM Masterclass
  - Einführung
    - Motivation
  - Hardware
- x
`
	imp := NewOutlineImporter(DefaultOptions())
	require.True(t, imp.CanImport(md))

	ext, err := imp.Import(md)
	require.NoError(t, err)
	assert.Equal(t, "Private & Corporate LLM Masterclass", ext.Title)
	require.Len(t, ext.Nodes, 4)

	assert.Equal(t, 2, ext.Nodes[2].Level)
	assert.Equal(t, 500.0, ext.Nodes[2].X)
	require.Len(t, ext.Connections, 3)
	assert.Equal(t, "node_1", ext.Connections[1].Source)
	assert.Equal(t, "node_2", ext.Connections[1].Target)
	assert.Equal(t, "node_0", ext.Connections[2].Source)
	assert.Equal(t, "node_3", ext.Connections[2].Target)
}

func TestRegistryDetection(t *testing.T) {
	r := NewImporterRegistry()
	assert.Equal(t, []string{"SVG", "JSON", "Outline"}, r.GetAvailableFormats())

	imp, err := r.DetectFormat(loadNotebookSVG(t))
	require.NoError(t, err)
	assert.Equal(t, "SVG", imp.GetFormatName())

	imp, err = r.DetectFormat(`[{"id":"a","text":"Alpha"}]`)
	require.NoError(t, err)
	assert.Equal(t, "JSON", imp.GetFormatName())

	imp, err = r.ForFile("map.md", "")
	require.NoError(t, err)
	assert.Equal(t, "Outline", imp.GetFormatName())

	_, err = r.DetectFormat("plain prose")
	assert.Error(t, err)

	_, err = r.ImportWithFormat("", "visio")
	assert.Error(t, err)
}

const duplicateIDMarkup = `<svg><g>` +
	`<g class="node" id="root" transform="translate(0,0)"><text class="node-name">Root topic</text></g>` +
	`<g class="node" id="a" transform="translate(200,-50)"><text class="node-name">Alpha</text></g>` +
	`<g class="node" id="b" transform="translate(200,50)"><text class="node-name">Beta</text></g>` +
	`<g class="node" id="b" transform="translate(600,60)"><text class="node-name">Beta detail</text></g>` +
	`<path class="link" data-source="root" data-target="a"></path>` +
	`<path class="link" data-source="root" data-target="b"></path>` +
	`<path class="link" data-source="b" data-target="b"></path>` +
	`</g></svg>`

func TestSVGImporterDuplicateIDsDropLinks(t *testing.T) {
	ext, err := NewSVGImporter(DefaultOptions()).Import(duplicateIDMarkup)
	require.NoError(t, err)
	require.Len(t, ext.Nodes, 4)

	ids := []string{ext.Nodes[0].ID, ext.Nodes[1].ID, ext.Nodes[2].ID, ext.Nodes[3].ID}
	assert.Equal(t, []string{"node_0", "node_1", "node_2", "node_3"}, ids)
	assert.Empty(t, ext.Connections, "link endpoints used the replaced ids")
}
