package importer

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"mindreel/mindmap"
)

// Raw substrings used to classify candidate diagrams. The hosted page renders
// toolbar icons as inline svg elements carrying these markers.
var (
	iconMarkers = []string{`class="gb_`, `focusable="false"`}
	nodeMarkers = []string{`class="node"`, `class="node-name"`}
	linkMarkers = []string{`class="link"`}
)

var translatePattern = regexp.MustCompile(`translate\(\s*([-+\d.eE]+)(?:\s*[,\s]\s*([-+\d.eE]+))?\s*\)`)

// SVGImporter reads mindmap nodes from rendered SVG markup
type SVGImporter struct {
	opts Options
}

// NewSVGImporter creates a new SVG importer
func NewSVGImporter(opts Options) *SVGImporter {
	return &SVGImporter{opts: opts.withDefaults()}
}

// CanImport checks if content looks like SVG markup
func (s *SVGImporter) CanImport(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<svg") || containsAny(content, nodeMarkers)
}

// GetFormatName returns the format name
func (s *SVGImporter) GetFormatName() string {
	return "SVG"
}

// GetFileExtensions returns common SVG file extensions
func (s *SVGImporter) GetFileExtensions() []string {
	return []string{".svg", ".html", ".htm"}
}

// Import selects the mindmap among the svg elements in content and reads its nodes
func (s *SVGImporter) Import(content string) (*Extraction, error) {
	markup, ok := SelectDiagram(SplitCandidates(content), s.opts.MinCandidateBytes)
	if !ok {
		return &Extraction{}, nil
	}

	title, nodes, connections := s.parseDiagram(markup)
	if mindmap.EnsureUniqueNodeIDs(nodes) {
		// Link endpoints named the old ids, geometry rebuilds the tree instead
		connections = nil
	}
	return &Extraction{
		Title:       title,
		Nodes:       nodes,
		Connections: connections,
		Markup:      markup,
		Selected:    true,
	}, nil
}

// SplitCandidates returns the markup of every outermost svg element in content.
// Content without any svg element is returned as a single candidate.
func SplitCandidates(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	var candidates []string
	var buf bytes.Buffer
	depth := 0

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		// TagName lowercases in place, so copy the raw bytes first
		raw := append([]byte(nil), z.Raw()...)
		name, _ := z.TagName()
		isSVG := string(name) == "svg"

		switch {
		case tt == html.StartTagToken && isSVG:
			depth++
		case tt == html.SelfClosingTagToken && isSVG && depth == 0:
			candidates = append(candidates, string(raw))
			continue
		}

		if depth > 0 {
			buf.Write(raw)
		}

		if tt == html.EndTagToken && isSVG && depth > 0 {
			depth--
			if depth == 0 {
				candidates = append(candidates, buf.String())
				buf.Reset()
			}
		}
	}

	// Unterminated svg at end of input
	if depth > 0 && buf.Len() > 0 {
		candidates = append(candidates, buf.String())
	}
	if len(candidates) == 0 {
		candidates = append(candidates, content)
	}
	return candidates
}

// SelectDiagram picks the mindmap among candidates. Icon markup is never chosen.
// The largest candidate with both node and link markers wins; failing that, the
// largest candidate with node markers above minBytes.
func SelectDiagram(candidates []string, minBytes int) (string, bool) {
	var linked, fallback string
	for _, c := range candidates {
		if containsAny(c, iconMarkers) || !containsAny(c, nodeMarkers) {
			continue
		}
		if containsAny(c, linkMarkers) && len(c) > len(linked) {
			linked = c
		}
		if len(c) > len(fallback) {
			fallback = c
		}
	}

	if linked != "" {
		return linked, true
	}
	if fallback != "" && len(fallback) > minBytes {
		return fallback, true
	}
	return "", false
}

// nodeRecord accumulates one node group while its element is open.
type nodeRecord struct {
	depth    int
	id       string
	x, y     float64
	label    strings.Builder
	fallback strings.Builder
}

// parseDiagram walks the selected markup once, collecting node groups and link edges
func (s *SVGImporter) parseDiagram(markup string) (string, []*mindmap.Node, []mindmap.Connection) {
	var (
		title       strings.Builder
		nodes       []*mindmap.Node
		connections []mindmap.Connection
		open        []*nodeRecord
		stack       []string
		textClass   string
		inText      bool
		inTitle     bool
	)

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			attrs := readAttrs(z, hasAttr)
			classes := strings.Fields(attrs["class"])

			if hasClass(classes, "link") {
				if src, dst := attrs["data-source"], attrs["data-target"]; src != "" && dst != "" {
					connections = append(connections, mindmap.Connection{Source: src, Target: dst})
				}
			}

			if tt == html.SelfClosingTagToken {
				continue
			}
			stack = append(stack, tag)

			switch {
			case tag == "g" && hasClass(classes, "node"):
				rec := &nodeRecord{depth: len(stack), id: attrs["id"]}
				rec.x, rec.y = parseTranslate(attrs["transform"])
				open = append(open, rec)
			case tag == "text":
				inText = true
				textClass = attrs["class"]
			case tag == "title" && len(open) == 0:
				inTitle = true
			}

		case html.TextToken:
			text := string(z.Text())
			switch {
			case inTitle:
				title.WriteString(text)
			case inText && len(open) > 0:
				rec := open[len(open)-1]
				classes := strings.Fields(textClass)
				switch {
				case hasClass(classes, "node-name"):
					rec.label.WriteString(text)
				case hasClass(classes, "expand-symbol"):
				default:
					rec.fallback.WriteString(text)
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)

			// Pop to the matching open element, tolerating unclosed children
			i := len(stack) - 1
			for i >= 0 && stack[i] != tag {
				i--
			}
			if i < 0 {
				continue
			}
			stack = stack[:i]

			switch tag {
			case "text":
				inText = false
				textClass = ""
			case "title":
				inTitle = false
			}

			for len(open) > 0 && open[len(open)-1].depth > len(stack) {
				rec := open[len(open)-1]
				open = open[:len(open)-1]
				if n := s.finishNode(rec, len(nodes)); n != nil {
					nodes = append(nodes, n)
				}
			}
		}
	}

	// Groups left open by truncated markup
	for i := len(open) - 1; i >= 0; i-- {
		if n := s.finishNode(open[i], len(nodes)); n != nil {
			nodes = append(nodes, n)
		}
	}

	return normalizeSpace(title.String()), nodes, connections
}

func (s *SVGImporter) finishNode(rec *nodeRecord, index int) *mindmap.Node {
	text := normalizeSpace(rec.label.String())
	if text == "" {
		text = normalizeSpace(rec.fallback.String())
	}
	if utf8.RuneCountInString(text) < s.opts.MinTextLength {
		return nil
	}

	id := rec.id
	if id == "" {
		id = mindmap.NodeID(index)
	}
	return &mindmap.Node{
		ID:    id,
		Text:  text,
		Level: s.opts.Bands.Level(rec.x),
		X:     rec.x,
		Y:     rec.y,
	}
}

func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := make(map[string]string)
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs[string(key)] = string(val)
	}
	return attrs
}

// parseTranslate returns the offsets of the first translate() in a transform attribute.
// A missing y offset is 0, as in SVG.
func parseTranslate(transform string) (float64, float64) {
	m := translatePattern.FindStringSubmatch(transform)
	if m == nil {
		return 0, 0
	}
	x, _ := strconv.ParseFloat(m[1], 64)
	var y float64
	if m[2] != "" {
		y, _ = strconv.ParseFloat(m[2], 64)
	}
	return x, y
}

func hasClass(classes []string, want string) bool {
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
