package fragment

import "testing"

func TestLongestPicksLongestTextBetweenTags(t *testing.T) {
	in := `<b>Revenue</b> grew substantially across all reportable segments during fiscal 2024 <i>(unaudited)</i>`
	got := Longest(in)
	want := "grew substantially across all reportable segments during fiscal 2024"
	if got != want {
		t.Fatalf("Longest() = %q, want %q", got, want)
	}
}

func TestLongestPlainTextPassesThrough(t *testing.T) {
	got := Longest("plain   text with   extra\nwhitespace")
	if got != "plain text with extra whitespace" {
		t.Fatalf("Longest() = %q", got)
	}
}

func TestLongestTableMarkup(t *testing.T) {
	in := `<table><tr><td>Fiscal 2024</td><td>Total revenue was $60,922 million compared to prior year</td></tr></table>`
	got := Longest(in)
	if got != "Total revenue was $60,922 million compared to prior year" {
		t.Fatalf("Longest() = %q", got)
	}
}

func TestLongestEmpty(t *testing.T) {
	if got := Longest("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
