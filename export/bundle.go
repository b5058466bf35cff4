package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"mindreel/mindmap"
	"mindreel/timeline"
)

// Bundle is the combined JSON artifact: metadata, flat nodes, edges and the hierarchy.
type Bundle struct {
	NotebookID    string               `json:"notebook_id"`
	NotebookTitle string               `json:"notebook_title"`
	GeneratedAt   string               `json:"generated_at"`
	Nodes         []flatEntry          `json:"nodes"`
	Connections   []mindmap.Connection `json:"connections"`
	Hierarchy     *TreeNode            `json:"hierarchy"`
}

// NewBundle assembles the bundle for d. Hierarchy is null when no root was built.
func NewBundle(d *mindmap.Data) *Bundle {
	connections := d.Connections
	if connections == nil {
		connections = []mindmap.Connection{}
	}
	return &Bundle{
		NotebookID:    d.ID,
		NotebookTitle: d.Title,
		GeneratedAt:   d.CreatedAt.Format(time.RFC3339),
		Nodes:         flatNodes(d.Nodes),
		Connections:   connections,
		Hierarchy:     Tree(d.Root),
	}
}

// SafeTitle turns a title into a file name stem: characters other than letters,
// digits, space, '-' and '_' become '_', and the result is cut to 50 runes.
func SafeTitle(title string) string {
	var sb strings.Builder
	n := 0
	for _, r := range title {
		if n == 50 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
		n++
	}
	if sb.Len() == 0 {
		return "mindmap"
	}
	return sb.String()
}

// BaseName returns "<safe title>_<YYYYmmdd_HHMMSS>".
func BaseName(title string, at time.Time) string {
	return fmt.Sprintf("%s_%s", SafeTitle(title), at.Format("20060102_150405"))
}

// SaveBundle writes the raw SVG (when captured), the JSON bundle, the Markdown outline
// and, when tl is not nil, the timeline into dir. It returns the written paths by kind.
func SaveBundle(dir string, d *mindmap.Data, tl *timeline.Timeline, at time.Time) (map[string]string, error) {
	if d == nil {
		return nil, fmt.Errorf("mindmap is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(dir, BaseName(d.Title, at))
	paths := make(map[string]string)

	if d.SVG != "" {
		if err := writeFile(base+".svg", d.SVG); err != nil {
			return paths, err
		}
		paths["svg"] = base + ".svg"
	}

	doc, err := marshal(NewBundle(d))
	if err != nil {
		return paths, fmt.Errorf("failed to encode bundle: %w", err)
	}
	if err := writeFile(base+".json", doc); err != nil {
		return paths, err
	}
	paths["json"] = base + ".json"

	md := &MarkdownExporter{now: func() time.Time { return at }}
	outline, _ := md.Export(d)
	if err := writeFile(base+".md", outline); err != nil {
		return paths, err
	}
	paths["markdown"] = base + ".md"

	if tl != nil {
		f, err := os.Create(base + ".timeline.json")
		if err != nil {
			return paths, fmt.Errorf("failed to create timeline file: %w", err)
		}
		encErr := tl.Encode(f)
		closeErr := f.Close()
		if encErr != nil {
			return paths, fmt.Errorf("failed to write timeline: %w", encErr)
		}
		if closeErr != nil {
			return paths, closeErr
		}
		paths["timeline"] = base + ".timeline.json"
	}

	return paths, nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
