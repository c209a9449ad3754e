package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LeafFilter decides whether a Translate-classified character run is worth
// sending to the backend.
type LeafFilter func(text string) bool

var defaultFilter = MinLetters(2)

// MinLetters rejects runs whose trimmed text is at most one character long
// or holds fewer than n letters. Letters are counted with unicode.IsLetter,
// so Cyrillic or CJK sources are handled the same way as Latin ones.
func MinLetters(n int) LeafFilter {
	return func(text string) bool {
		s := strings.TrimSpace(text)
		if utf8.RuneCountInString(s) <= 1 {
			return false
		}
		letters := 0
		for _, r := range s {
			if unicode.IsLetter(r) {
				letters++
				if letters >= n {
					return true
				}
			}
		}
		return letters >= n
	}
}
