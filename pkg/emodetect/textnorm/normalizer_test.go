package textnorm

import (
	"fmt"
	"strings"
	"testing"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := Default()
	if err != nil {
		t.Fatalf("Default normalizer: %v", err)
	}
	return n
}

func TestNormalizeTweet(t *testing.T) {
	n := newTestNormalizer(t)

	got := n.Normalize("Layin n bed with a headache  ughhhh...waitin on your call...")
	want := "layin n bed headache ughhhh waitin call"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}

	for i := 0; i < 5; i++ {
		if again := n.Normalize("Layin n bed with a headache  ughhhh...waitin on your call..."); again != got {
			t.Fatalf("Normalize not deterministic: %q vs %q", again, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer(t)

	inputs := []string{
		"Layin n bed with a headache  ughhhh...waitin on your call...",
		"Going to the beach with my puppies!! Best weekend ever",
		"I am so happy today",
		"I feel sad and tired",
		"Funeral ceremony...gloomy friday...",
		"",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q) not idempotent: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeExamples(t *testing.T) {
	n := newTestNormalizer(t)

	cases := []struct {
		in   string
		want string
	}{
		{"I am so happy today", "happy today"},
		{"I feel sad and tired", "feel sad tired"},
		{"I feel so sad", "feel sad"},
		{"Going to the beach with my puppies!! Best weekend ever", "going beach puppy best weekend ever"},
		{"", ""},
		{"the and of", ""},
		{"!!! ... ???", ""},
	}
	for _, tc := range cases {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOutputAlphabetic(t *testing.T) {
	n := newTestNormalizer(t)

	got := n.Normalize("WOW!!! 100% amazing @friend #blessed www.example.com/x3 :) 2day")
	if got != strings.ToLower(got) {
		t.Errorf("output %q should be lower-case", got)
	}
	for _, r := range got {
		if r >= '0' && r <= '9' {
			t.Errorf("output %q contains digit", got)
		}
		if strings.ContainsRune(Punctuation, r) {
			t.Errorf("output %q contains punctuation %q", got, r)
		}
	}
	if strings.Contains(got, "  ") {
		t.Errorf("output %q contains repeated spaces", got)
	}
}

func TestLowerCase(t *testing.T) {
	if got := LowerCase("  Hello   WORLD "); got != "hello world" {
		t.Errorf("LowerCase = %q", got)
	}
	if got := LowerCase(""); got != "" {
		t.Errorf("LowerCase(empty) = %q", got)
	}
}

func TestRemoveStopwords(t *testing.T) {
	n := newTestNormalizer(t)

	if got := n.RemoveStopwords("i am so happy today"); got != "happy today" {
		t.Errorf("RemoveStopwords = %q", got)
	}
	// matching is exact, so upper-case tokens survive
	if got := n.RemoveStopwords("The cat"); got != "The cat" {
		t.Errorf("RemoveStopwords should be case-sensitive, got %q", got)
	}
}

func TestRemoveDigits(t *testing.T) {
	if got := RemoveDigits("abc123 4ever"); got != "abc ever" {
		t.Errorf("RemoveDigits = %q", got)
	}
	if got := RemoveDigits("2024"); got != "" {
		t.Errorf("RemoveDigits(2024) = %q", got)
	}
}

func TestRemovePunctuation(t *testing.T) {
	cases := map[string]string{
		"hello,world!! it's...me: ": "hello world it s me",
		"a-b_c":                     "a b c",
		"  spaced   out  ":          "spaced out",
		"":                          "",
	}
	for in, want := range cases {
		if got := RemovePunctuation(in); got != want {
			t.Errorf("RemovePunctuation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRemoveURLs(t *testing.T) {
	if got := RemoveURLs("see https://t.co/x now"); got != "see  now" {
		t.Errorf("RemoveURLs = %q", got)
	}
	if got := RemoveURLs("visit www.site.org"); got != "visit " {
		t.Errorf("RemoveURLs = %q", got)
	}
	if got := RemoveURLs("no links here"); got != "no links here" {
		t.Errorf("RemoveURLs = %q", got)
	}
}

func TestLemmatize(t *testing.T) {
	n := newTestNormalizer(t)

	got := n.Lemmatize("children parties glasses boxes wolves ughhh")
	want := "child party glass box wolf ughhh"
	if got != want {
		t.Errorf("Lemmatize = %q, want %q", got, want)
	}
}

func TestLemmatizeEverydayPlurals(t *testing.T) {
	n := newTestNormalizer(t)

	cases := map[string]string{
		"problems": "problem",
		"words":    "word",
		"plans":    "plan",
		"hates":    "hate",
		"misses":   "miss",
		"lyrics":   "lyric",
		"feelings": "feeling",
		"lovers":   "lover",
		"payments": "payment",
		"quizzes":  "quiz",
		"tomatoes": "tomato",
	}
	for in, want := range cases {
		if got := n.Lemmatize(in); got != want {
			t.Errorf("Lemmatize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeAllMatchesSerial(t *testing.T) {
	n := newTestNormalizer(t)

	texts := make([]string, 101)
	for i := range texts {
		texts[i] = fmt.Sprintf("Day %d with my friends at the parties!!", i)
	}

	parallel := n.NormalizeAll(texts, 4)
	if len(parallel) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(parallel))
	}
	for i, text := range texts {
		if want := n.Normalize(text); parallel[i] != want {
			t.Errorf("index %d: got %q, want %q", i, parallel[i], want)
		}
	}
}

func TestResourcesRoundTrip(t *testing.T) {
	n := newTestNormalizer(t)

	rebuilt, err := FromResources(n.Resources())
	if err != nil {
		t.Fatalf("FromResources: %v", err)
	}

	text := "The children were playing with their puppies at 3pm!!! http://t.co/x"
	if got, want := rebuilt.Normalize(text), n.Normalize(text); got != want {
		t.Errorf("rebuilt normalizer output %q, want %q", got, want)
	}

	if _, err := FromResources(Resources{}); err == nil {
		t.Error("empty resources should fail")
	}
}
