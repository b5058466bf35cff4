package keywords_test

import (
	"testing"

	"mindreel/keywords"
	"mindreel/mindmap"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	a := keywords.NewAnalyzer()

	tests := []struct {
		name    string
		text    string
		want    []string
		without []string
	}{
		{
			name:    "german stop words",
			text:    "Technische Basis und Hardware",
			want:    []string{"technische", "basis", "hardware"},
			without: []string{"und"},
		},
		{
			name:    "english stop words",
			text:    "The quick brown fox and the lazy dog",
			want:    []string{"quick", "brown", "fox", "lazy", "dog"},
			without: []string{"the", "and"},
		},
		{
			name: "punctuation and umlauts",
			text: "Geschäftliche Chancen: Überblick, KI-Strategie!",
			want: []string{"geschäftliche", "chancen", "überblick", "strategie"},
		},
		{
			name: "duplicates collapse",
			text: "data Data DATA pipeline",
			want: []string{"data", "pipeline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Extract(tt.text)
			assert.Equal(t, tt.want, got)
			for _, w := range tt.without {
				assert.NotContains(t, got, w)
			}
		})
	}

	assert.Empty(t, a.Extract(""))
	assert.Empty(t, a.Extract("a an of"))
}

func TestCustomStopWords(t *testing.T) {
	a := keywords.NewAnalyzerWithStopWords([]string{"Mindmap"})
	assert.Equal(t, []string{"overview"}, a.Extract("mindmap overview"))
	assert.True(t, a.IsStopWord("MINDMAP"))
}

func TestScore(t *testing.T) {
	same := []string{"hardware", "basis", "technische"}
	assert.Equal(t, 1.0, keywords.Score(same, []string{"technische", "hardware", "basis"}))

	partial := keywords.Score([]string{"hardware", "software", "system"}, same)
	assert.InDelta(t, 0.2, partial, 1e-9)

	assert.Equal(t, 0.0, keywords.Score([]string{"apple"}, []string{"dog"}))
	assert.Equal(t, 0.0, keywords.Score(nil, []string{"word"}))
	assert.Equal(t, 0.0, keywords.Score([]string{"word"}, nil))
	assert.Equal(t, 0.0, keywords.Score(nil, nil))
}

func TestScoreIsSymmetric(t *testing.T) {
	pairs := [][2][]string{
		{{"a1", "b2", "c3"}, {"b2"}},
		{{"topic", "details"}, {"topic"}},
		{{"x"}, {"y", "z"}},
		{{"same"}, {"same", "same"}},
	}
	for _, p := range pairs {
		assert.Equal(t, keywords.Score(p[0], p[1]), keywords.Score(p[1], p[0]))
	}
}

func TestIndexBest(t *testing.T) {
	nodes := []*mindmap.Node{
		{ID: "root", Text: "Corporate LLM Masterclass"},
		{ID: "hw", Text: "Technische Basis & Hardware"},
		{ID: "hw2", Text: "Hardware Basis Technische"},
	}
	idx := keywords.NewIndex(nil, nodes)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"technische", "basis", "hardware"}, idx.Keywords("hw"))

	id, score, ok := idx.Best([]string{"hardware", "technische", "basis"})
	assert.True(t, ok)
	assert.Equal(t, "hw", id, "ties go to the first indexed node")
	assert.Equal(t, 1.0, score)

	_, _, ok = idx.Best([]string{"unrelated"})
	assert.False(t, ok)
	_, _, ok = idx.Best(nil)
	assert.False(t, ok)
}
