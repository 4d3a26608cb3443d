package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// lower folds s to lower case. A cases.Caser is stateful, so one is created
// per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Keywords returns the significant words of text: punctuation is replaced by
// spaces, words of three characters or fewer and stop-words are dropped.
// The input is expected to be lower-cased already.
func (t *Tables) Keywords(text string) []string {
	fields := strings.Fields(nonWordRe.ReplaceAllString(text, " "))
	out := fields[:0]
	for _, w := range fields {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if _, stop := t.compiled.stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// WordCount counts whitespace-separated words of the trimmed text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// relevance returns the fraction of question keywords that share a substring
// relation with at least one answer keyword. A question with no keywords
// yields 0.5.
func relevance(questionKW, answerKW []string) float64 {
	if len(questionKW) == 0 {
		return 0.5
	}
	matched := 0
	for _, qk := range questionKW {
		for _, ak := range answerKW {
			if strings.Contains(ak, qk) || strings.Contains(qk, ak) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(questionKW))
}
