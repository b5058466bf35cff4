package keywords

import "mindreel/mindmap"

// Index caches the keywords of every node of one mindmap so repeated
// segment comparisons don't re-tokenise node labels.
type Index struct {
	order []string
	words map[string][]string
	sets  map[string]map[string]bool
}

// NewIndex builds the keyword index for nodes.
func NewIndex(analyzer *Analyzer, nodes []*mindmap.Node) *Index {
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}

	idx := &Index{
		order: make([]string, 0, len(nodes)),
		words: make(map[string][]string, len(nodes)),
		sets:  make(map[string]map[string]bool, len(nodes)),
	}
	for _, n := range nodes {
		if _, dup := idx.words[n.ID]; dup {
			continue
		}
		kw := analyzer.Extract(n.Text)
		idx.order = append(idx.order, n.ID)
		idx.words[n.ID] = kw
		idx.sets[n.ID] = toSet(kw)
	}
	return idx
}

// Keywords returns the cached keywords for a node id.
func (idx *Index) Keywords(id string) []string {
	return idx.words[id]
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Best returns the node whose keywords score highest against query.
// Ties go to the node indexed first. ok is false when nothing scores above zero.
func (idx *Index) Best(query []string) (id string, score float64, ok bool) {
	if len(query) == 0 {
		return "", 0, false
	}

	q := toSet(query)
	for _, nodeID := range idx.order {
		if s := jaccard(q, idx.sets[nodeID]); s > score {
			id, score, ok = nodeID, s, true
		}
	}
	return id, score, ok
}
