package pdftext

import (
	"regexp"
	"strings"
)

var pageMarkerRe = regexp.MustCompile(`--- PAGE (\d+) ---`)

// minPrefixWords is the shortest word prefix still considered a meaningful
// partial match. Anything shorter hits boilerplate all over a 10-K.
const minPrefixWords = 3

type markedPage struct {
	number int
	text   string
}

// LocatePage finds a text fragment inside page-marked filing text. It tries
// an exact match first, then progressively shorter word prefixes of the
// fragment. Returns the page number, whether the match was exact, and
// whether anything was found.
func LocatePage(fragment, pageText string) (page int, exact bool, found bool) {
	fragment = normalizeSpace(fragment)
	if fragment == "" {
		return 0, false, false
	}

	pages := splitMarkedPages(pageText)
	if len(pages) == 0 {
		return 0, false, false
	}

	for _, p := range pages {
		if strings.Contains(p.text, fragment) {
			return p.number, true, true
		}
	}

	words := strings.Fields(fragment)
	for n := len(words) - 1; n >= minPrefixWords; n-- {
		prefix := strings.Join(words[:n], " ")
		for _, p := range pages {
			if strings.Contains(p.text, prefix) {
				return p.number, false, true
			}
		}
	}
	return 0, false, false
}

// splitMarkedPages breaks marker-delimited text into normalized per-page
// text. Text without markers counts as page 1.
func splitMarkedPages(pageText string) []markedPage {
	locs := pageMarkerRe.FindAllStringSubmatchIndex(pageText, -1)
	if len(locs) == 0 {
		normalized := normalizeSpace(pageText)
		if normalized == "" {
			return nil
		}
		return []markedPage{{number: 1, text: normalized}}
	}

	pages := make([]markedPage, 0, len(locs))
	for i, loc := range locs {
		number := parsePageNumber(pageText[loc[2]:loc[3]])
		if number == 0 {
			continue
		}
		start := loc[1]
		end := len(pageText)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		pages = append(pages, markedPage{
			number: number,
			text:   normalizeSpace(pageText[start:end]),
		})
	}
	return pages
}

func parsePageNumber(raw string) int {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
