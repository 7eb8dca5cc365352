package songbpm

const (
	minTitleSimilarity   = 0.65
	minArtistSimilarity  = 0.55
	minOverallSimilarity = 0.70
)

// confidentMatch gates a search hit on string similarity between the
// request and the hit's own title/artist.
func confidentMatch(wantTitle, wantArtist, gotTitle, gotArtist string) bool {
	candidateTitle := normalizeTerm(gotTitle)
	candidateArtist := normalizeTerm(gotArtist)
	if wantTitle == "" || candidateTitle == "" {
		return false
	}

	titleSim := similarity(wantTitle, candidateTitle)
	if wantArtist == "" || candidateArtist == "" {
		// No artist to compare: lean on the title alone, slightly stricter.
		return titleSim >= minOverallSimilarity
	}

	artistSim := similarity(wantArtist, candidateArtist)
	score := 0.7*titleSim + 0.3*artistSim
	return titleSim >= minTitleSimilarity && artistSim >= minArtistSimilarity && score >= minOverallSimilarity
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

func levenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
