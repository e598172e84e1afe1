package pdftext

import "testing"

const sampleText = `--- PAGE 1 ---
NVIDIA Corporation annual report on Form 10-K.
--- PAGE 2 ---
Our Data Center revenue grew significantly,
driven   by demand for accelerated computing.
--- PAGE 3 ---
Risk factors include export controls and supply constraints.
`

func TestLocatePageExactMatch(t *testing.T) {
	page, exact, found := LocatePage("Data Center revenue grew significantly, driven by demand", sampleText)
	if !found || !exact {
		t.Fatalf("expected exact match, got found=%v exact=%v", found, exact)
	}
	if page != 2 {
		t.Fatalf("expected page 2, got %d", page)
	}
}

func TestLocatePageNormalizesWhitespace(t *testing.T) {
	page, _, found := LocatePage("driven by demand for accelerated computing", sampleText)
	if !found || page != 2 {
		t.Fatalf("expected whitespace-insensitive match on page 2, got found=%v page=%d", found, page)
	}
}

func TestLocatePagePartialPrefixMatch(t *testing.T) {
	// Trailing words differ from the PDF text: only a prefix matches.
	page, exact, found := LocatePage("Risk factors include export controls and tariffs on wafers", sampleText)
	if !found {
		t.Fatalf("expected partial match")
	}
	if exact {
		t.Fatalf("expected non-exact match")
	}
	if page != 3 {
		t.Fatalf("expected page 3, got %d", page)
	}
}

func TestLocatePageNotFound(t *testing.T) {
	if _, _, found := LocatePage("completely unrelated sentence about submarines", sampleText); found {
		t.Fatalf("expected no match")
	}
}

func TestLocatePageUnmarkedTextDefaultsToPageOne(t *testing.T) {
	page, exact, found := LocatePage("plain body", "some plain body without markers")
	if !found || !exact || page != 1 {
		t.Fatalf("expected exact match on page 1, got found=%v exact=%v page=%d", found, exact, page)
	}
}

func TestLocatePageEmptyInputs(t *testing.T) {
	if _, _, found := LocatePage("", sampleText); found {
		t.Fatalf("expected no match for empty fragment")
	}
	if _, _, found := LocatePage("fragment", "   "); found {
		t.Fatalf("expected no match for empty text")
	}
}
