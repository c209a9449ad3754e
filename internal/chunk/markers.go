package chunk

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	chunkSepFormat = "\n{CH4NK_SEP%d}\n"
	tokenSepFormat = " {{T0KEN5EP%d}}"

	paragraphPlaceholder = "{P4RA}"
)

// markerPattern recognizes both marker families after translation. The
// chunk family comes first. Both tolerate any letter case, inner spaces and
// Cyrillic look-alikes of the marker letters; token markers may also lose
// one of their doubled braces.
var markerPattern = regexp.MustCompile(
	`(?i)\n?\{ *[CС][HН]4[NН][KК][_ ]?S[EЕ][PР] *(\d+) *\}\n?` +
		`|\{?\{ *[TТ][0OО][KК][EЕ][NН]5[EЕ][PР] *(\d+) *\}\}?`)

var paragraphPattern = regexp.MustCompile(`(?i)\{ *[PР]4R[AА] *\}`)

// blankLine is a paragraph break: a line holding only spaces or tabs.
var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

func marker(kind StubKind, id int) string {
	switch kind {
	case KindBoundary, KindChunk:
		return fmt.Sprintf(chunkSepFormat, id)
	default:
		return fmt.Sprintf(tokenSepFormat, id)
	}
}

// Recover cuts translated text at the stub markers it still contains. It
// returns the text between markers and the marker ids in order; an id that
// cannot be read is reported as -1.
func Recover(text string) (parts []string, ids []int) {
	prev := 0
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		parts = append(parts, text[prev:loc[0]])
		start, end := loc[2], loc[3]
		if start < 0 {
			start, end = loc[4], loc[5]
		}
		id, err := strconv.Atoi(text[start:end])
		if err != nil {
			id = -1
		}
		ids = append(ids, id)
		prev = loc[1]
	}
	parts = append(parts, text[prev:])
	return parts, ids
}

// EncodeParagraphs hides blank lines, including whitespace-only ones, from
// the translator. It returns the encoded text and the replaced breaks in
// order.
func EncodeParagraphs(s string) (string, []string) {
	var breaks []string
	out := blankLine.ReplaceAllStringFunc(s, func(m string) string {
		breaks = append(breaks, m)
		return paragraphPlaceholder
	})
	return out, breaks
}

// RestoreParagraphs undoes EncodeParagraphs, accepting damaged placeholders.
// When the translation kept every placeholder the original breaks are put
// back; otherwise each placeholder becomes an empty line.
func RestoreParagraphs(s string, breaks []string) string {
	n := len(paragraphPattern.FindAllStringIndex(s, -1))
	i := 0
	return paragraphPattern.ReplaceAllStringFunc(s, func(string) string {
		br := "\n\n"
		if n == len(breaks) {
			br = breaks[i]
		}
		i++
		return br
	})
}
