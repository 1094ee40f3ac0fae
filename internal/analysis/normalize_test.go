package analysis

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"scenario", "CRISPR edits genomes. Mutation rates vary.", "crispr edits genomes mutation rates vary"},
		{"punctuation merges words", "gene-editing, p53/MDM2", "geneediting p53mdm2"},
		{"keeps underscore and digits", "IL_6 raised 3.5x!", "il_6 raised 35x"},
		{"unicode letters", "Ärzte über Zellteilung: Ça va?", "ärzte über zellteilung ça va"},
		{"keeps whitespace", "a\tb\nc", "a\tb\nc"},
		{"keeps separator controls", "Gene\x1cEdit\x1fX", "gene\x1cedit\x1fx"},
		{"drops other controls", "gene\x07edit", "geneedit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Hello, World!",
		"ΟΔΥΣΣΕΥΣ. Σ.Α",
		"İstanbul’s DNA\u2014RNA (mRNA) “quotes”",
		"tabs\tand\nnewlines... ok?",
		"emoji 🧬 stays out",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  crispr   edits\n\tgenomes ")
	want := []string{"crispr", "edits", "genomes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	got = Tokenize(Normalize("CRISPR\x1cedits\x1dgenomes\x1e\x1f"))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("separator controls: got %v want %v", got, want)
	}
	if table := TopTerms("a\x1cb\x1ca", 0); table.TokenCount != 3 || table.Vocabulary != 2 {
		t.Fatalf("table = %+v", table)
	}
	if toks := Tokenize(""); len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
}
