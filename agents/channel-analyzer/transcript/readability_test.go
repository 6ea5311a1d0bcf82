package transcript

import (
	"math"
	"testing"
)

func TestReadabilityScoreEmptyTranscript(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t", "..."} {
		if got := ReadabilityScore(text); got != 0 {
			t.Errorf("ReadabilityScore(%q) = %v, want 0 sentinel", text, got)
		}
	}
}

func TestReadabilityScoreSimpleSentence(t *testing.T) {
	// 6 words, 6 syllables, 1 sentence:
	// 206.835 - 1.015*6 - 84.6*1 = 116.145
	got := ReadabilityScore("The cat sat on the mat.")
	want := 116.145
	if math.Abs(got-want) > 0.001 {
		t.Errorf("ReadabilityScore = %v, want %v", got, want)
	}
}

func TestReadabilityScoreOrdering(t *testing.T) {
	simple := ReadabilityScore("I like dogs. Dogs are fun. We run and play.")
	complex := ReadabilityScore(
		"Institutional heterogeneity systematically complicates multidimensional organizational decision-making, " +
			"particularly when interdependent stakeholders simultaneously negotiate incommensurable epistemological priorities.")

	if simple <= complex {
		t.Errorf("expected simple text (%v) to score higher than complex text (%v)", simple, complex)
	}
}

func TestReadabilityScoreDeterministic(t *testing.T) {
	text := "Today we look at three ways to grow a channel. Post often. Know your audience. Study the numbers."
	first := ReadabilityScore(text)
	second := ReadabilityScore(text)
	if first != second {
		t.Errorf("ReadabilityScore not deterministic: %v vs %v", first, second)
	}
}

func TestCountSentences(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"One. Two! Three?", 3},
		{"Wait... what", 2},
		{"no terminator at all", 1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := countSentences(tt.text); got != tt.want {
			t.Errorf("countSentences(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"hello", 2},
		{"make", 1},
		{"apple", 2},
		{"rhythm", 1},
	}
	for _, tt := range tests {
		if got := countSyllables(tt.word); got != tt.want {
			t.Errorf("countSyllables(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}
