// Package terms ranks salient terms in a text corpus by TF-IDF weight.
// It backs both the content-gap and the top-performing-topics rankings; the
// two call sites differ only in how the corpus is built and in K.
package terms

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

// Document is one unit of the corpus, typically a video's title and
// description joined together.
type Document struct {
	ID   string
	Text string
}

// termStat accumulates the corpus-wide statistics for one term.
type termStat struct {
	term      string
	weight    float64
	firstSeen int
}

// TopTerms tokenizes the corpus, drops stop-words and non-alphanumeric
// tokens, weighs each term with a smoothed TF-IDF scheme and returns the k
// heaviest terms, descending. Ties keep first-encountered corpus order, so
// the same corpus always produces the same ranking. The corpus is a slice
// rather than a map for exactly that reason.
func TopTerms(corpus []Document, k int) []string {
	if k <= 0 || len(corpus) == 0 {
		return []string{}
	}

	docTokens := make([][]string, 0, len(corpus))
	for _, doc := range corpus {
		docTokens = append(docTokens, tokenize(doc.Text))
	}

	// Term frequency per document and document frequency across the corpus.
	docFreq := make(map[string]int)
	termFreqs := make([]map[string]int, len(docTokens))
	firstSeen := make(map[string]int)
	order := 0

	for i, tokens := range docTokens {
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
			if _, ok := firstSeen[tok]; !ok {
				firstSeen[tok] = order
				order++
			}
		}
		for tok := range tf {
			docFreq[tok]++
		}
		termFreqs[i] = tf
	}

	if len(firstSeen) == 0 {
		return []string{}
	}

	stats := make([]termStat, 0, len(firstSeen))
	n := float64(len(docTokens))
	for term, pos := range firstSeen {
		idf := smoothedIDF(n, float64(docFreq[term]))
		weight := 0.0
		for _, tf := range termFreqs {
			weight += float64(tf[term]) * idf
		}
		stats = append(stats, termStat{term: term, weight: weight, firstSeen: pos})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].weight != stats[j].weight {
			return stats[i].weight > stats[j].weight
		}
		return stats[i].firstSeen < stats[j].firstSeen
	})

	if k > len(stats) {
		k = len(stats)
	}
	top := make([]string, 0, k)
	for _, s := range stats[:k] {
		top = append(top, s.term)
	}
	return top
}

// smoothedIDF is ln((1+N)/(1+df)) + 1, the sklearn-style smoothing that keeps
// terms appearing in every document from vanishing entirely.
func smoothedIDF(n, df float64) float64 {
	return math.Log((1+n)/(1+df)) + 1
}

// tokenize lowercases, strips stop-words and keeps alphanumeric tokens only.
func tokenize(text string) []string {
	cleaned := stopwords.CleanString(strings.ToLower(text), "en", false)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if isAlphanumeric(f) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
