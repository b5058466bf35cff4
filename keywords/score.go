package keywords

// Score returns the Jaccard index |A∩B| / |A∪B| of two keyword lists treated as sets.
// It is 0 when either list is empty and symmetric in its arguments.
func Score(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	return jaccard(toSet(a), toSet(b))
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
