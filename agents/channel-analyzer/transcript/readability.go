// Package transcript scores transcript text for readability.
package transcript

import (
	"strings"
	"unicode"
)

// ReadabilityScore computes the Flesch Reading Ease score for the given text:
//
//	206.835 - 1.015*(words/sentences) - 84.6*(syllables/words)
//
// Scores usually land between 0 and 100 but the formula is unbounded; extreme
// text can score negative or above 100. Empty or word-free text scores 0,
// which callers treat as the "no transcript" sentinel.
func ReadabilityScore(text string) float64 {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}

	sentences := countSentences(text)
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	wordCount := float64(len(words))
	return 206.835 - 1.015*(wordCount/float64(sentences)) - 84.6*(float64(syllables)/wordCount)
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// countSentences counts terminator runs (. ! ?) so that "..." ends one
// sentence, not three. Text without a terminator counts as one sentence.
func countSentences(text string) int {
	count := 0
	inTerminator := false
	sawContent := false

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminator && sawContent {
				count++
			}
			inTerminator = true
			sawContent = false
		default:
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				sawContent = true
			}
			inTerminator = false
		}
	}
	if sawContent {
		count++
	}
	return count
}

// countSyllables estimates syllables by counting vowel groups, applying the
// usual silent-e adjustment. Every word has at least one syllable.
func countSyllables(word string) int {
	word = strings.ToLower(word)

	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}

	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}
