package textutil_test

import (
	"testing"

	"shelfmark/internal/textutil"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"the_left_hand_of_darkness", "The Left Hand Of Darkness"},
		{"A.Wizard.of.Earthsea.1968.epub", "A Wizard Of Earthsea 1968 Epub"},
		{"  piranesi  ", "Piranesi"},
		{"---", "Unknown Title"},
		{"", "Unknown Title"},
	}
	for _, tc := range cases {
		if got := textutil.NormalizeTitle(tc.input); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := textutil.NewFingerprint("The Left Hand of Darkness")
	b := textutil.NewFingerprint("the left hand of darkness (le guin)")
	c := textutil.NewFingerprint("Crime and Punishment")

	if sim := textutil.CosineSimilarity(a, b); sim < 0.8 {
		t.Fatalf("expected near-identical titles to score high, got %f", sim)
	}
	if sim := textutil.CosineSimilarity(a, c); sim > 0.1 {
		t.Fatalf("expected unrelated titles to score low, got %f", sim)
	}
	if sim := textutil.CosineSimilarity(a, nil); sim != 0 {
		t.Fatalf("expected nil fingerprint to score 0, got %f", sim)
	}
}

func TestTokenizeFiltersShortTokens(t *testing.T) {
	tokens := textutil.Tokenize("A Go of me and the Sea!")
	for _, token := range tokens {
		if len(token) < 3 {
			t.Fatalf("short token survived: %q", token)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Dune: Messiah", "Dune- Messiah"},
		{"What If?", "What If"},
		{"a/b\\c", "a-b-c"},
		{"  plain  ", "plain"},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.input); got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
