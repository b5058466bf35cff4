package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Block is a fenced code block whose language is one the scanner looks for.
type Block struct {
	Lang        string // Fence language, e.g. mermaid
	Content     string
	StartLine   int // Line of the opening fence (0-based)
	EndLine     int // Line of the closing fence
	Indent      string
	ContentHash string // SHA256 of Content, used to detect concurrent edits
}

// Scanner finds fenced blocks in a markdown document.
type Scanner struct {
	content string
	lines   []string
	langs   map[string]bool
}

// NewScanner creates a scanner for the given fence languages. With none it looks for
// mermaid blocks, which is where mindmaps are embedded in docs.
func NewScanner(content string, langs ...string) *Scanner {
	if len(langs) == 0 {
		langs = []string{"mermaid"}
	}
	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		set[strings.ToLower(l)] = true
	}
	return &Scanner{
		content: content,
		lines:   strings.Split(content, "\n"),
		langs:   set,
	}
}

// FindBlocks returns every matching block in document order. An unclosed fence is ignored.
func (s *Scanner) FindBlocks() []Block {
	var blocks []Block
	var current *Block
	var body []string

	for i, line := range s.lines {
		trimmed := strings.TrimLeft(line, " \t")
		if current == nil {
			if !strings.HasPrefix(trimmed, "```") {
				continue
			}
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			if s.langs[strings.ToLower(lang)] {
				current = &Block{Lang: lang, StartLine: i, Indent: line[:len(line)-len(trimmed)]}
				body = body[:0]
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			current.EndLine = i
			current.Content = strings.Join(body, "\n")
			current.ContentHash = hash(current.Content)
			blocks = append(blocks, *current)
			current = nil
			continue
		}
		body = append(body, strings.TrimPrefix(line, current.Indent))
	}
	return blocks
}

// Mindmaps returns the blocks holding a mermaid mindmap.
func (s *Scanner) Mindmaps() []Block {
	var out []Block
	for _, b := range s.FindBlocks() {
		if strings.HasPrefix(strings.TrimSpace(b.Content), "mindmap") {
			out = append(out, b)
		}
	}
	return out
}

// Unchanged checks that block still has the content it had when it was found.
func (s *Scanner) Unchanged(block Block) error {
	if err := s.checkBounds(block); err != nil {
		return err
	}
	var body []string
	for i := block.StartLine + 1; i < block.EndLine; i++ {
		body = append(body, strings.TrimPrefix(s.lines[i], block.Indent))
	}
	if hash(strings.Join(body, "\n")) != block.ContentHash {
		return fmt.Errorf("block content has been modified externally (hash mismatch)")
	}
	return nil
}

// Replace returns the document with block's body swapped for content. The fences and
// the block's indentation are kept.
func (s *Scanner) Replace(block Block, content string) (string, error) {
	if err := s.checkBounds(block); err != nil {
		return "", err
	}

	start := strings.TrimLeft(s.lines[block.StartLine], " \t")
	if !strings.HasPrefix(start, "```"+block.Lang) {
		return "", fmt.Errorf("block start marker has changed at line %d: expected '```%s', found '%s'",
			block.StartLine+1, block.Lang, start)
	}
	end := strings.TrimLeft(s.lines[block.EndLine], " \t")
	if !strings.HasPrefix(end, "```") {
		return "", fmt.Errorf("block end marker has changed at line %d: expected '```', found '%s'",
			block.EndLine+1, end)
	}

	out := make([]string, 0, len(s.lines))
	out = append(out, s.lines[:block.StartLine+1]...)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if line == "" {
			out = append(out, line)
			continue
		}
		out = append(out, block.Indent+line)
	}
	out = append(out, s.lines[block.EndLine:]...)
	return strings.Join(out, "\n"), nil
}

// Content returns the scanned document.
func (s *Scanner) Content() string {
	return s.content
}

func (s *Scanner) checkBounds(block Block) error {
	if block.StartLine < 0 || block.EndLine >= len(s.lines) || block.StartLine >= block.EndLine {
		return fmt.Errorf("invalid block boundaries: start=%d, end=%d, total lines=%d",
			block.StartLine, block.EndLine, len(s.lines))
	}
	return nil
}

// Embed writes content into the index-th (1-based) mindmap block of doc. With index 0
// the document must hold exactly one mindmap block.
func Embed(doc, content string, index int) (string, error) {
	s := NewScanner(doc)
	blocks := s.Mindmaps()

	if len(blocks) == 0 {
		return "", fmt.Errorf("no mermaid mindmap blocks found")
	}

	var block Block
	switch {
	case index > 0:
		if index > len(blocks) {
			return "", fmt.Errorf("block index %d is out of range (found %d blocks)", index, len(blocks))
		}
		block = blocks[index-1]
	case len(blocks) == 1:
		block = blocks[0]
	default:
		return "", fmt.Errorf("multiple mindmap blocks found, please specify which one with -block")
	}

	if err := s.Unchanged(block); err != nil {
		return "", err
	}
	return s.Replace(block, content)
}

// Describe returns a one-line summary of a block for pickers and error messages.
func Describe(block Block, index int) string {
	preview := ""
	for _, line := range strings.Split(strings.TrimSpace(block.Content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "mindmap" {
			continue
		}
		preview = trimmed
		if r := []rune(preview); len(r) > 50 {
			preview = string(r[:47]) + "..."
		}
		break
	}
	return fmt.Sprintf("%d. %s (line %d): %s", index+1, block.Lang, block.StartLine+1, preview)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
