package fragment

import (
	"strings"

	"golang.org/x/net/html"
)

// Longest strips markup from a stored chunk's text and returns its longest
// contiguous clean fragment. Chunks are ingested from HTML-ish renderings
// of the filings, so tags split the text into pieces; the longest piece is
// the most distinctive anchor to search the PDF for.
func Longest(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	longest := ""
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		if tokenType != html.TextToken {
			continue
		}
		piece := normalizeSpace(string(tokenizer.Text()))
		if len(piece) > len(longest) {
			longest = piece
		}
	}

	if longest == "" {
		// Nothing survived tokenization; fall back to the raw text.
		longest = normalizeSpace(text)
	}
	return longest
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
