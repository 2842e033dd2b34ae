package textnorm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

func TestDefaultStopwords(t *testing.T) {
	stops, err := DefaultStopwords()
	if err != nil {
		t.Fatalf("DefaultStopwords: %v", err)
	}
	if stops.Len() != 179 {
		t.Errorf("expected 179 English stop-words, got %d", stops.Len())
	}
	for _, w := range []string{"i", "the", "don't", "wouldn't", "s"} {
		if !stops.IsStop(w) {
			t.Errorf("%q should be a stop-word", w)
		}
	}
	if stops.IsStop("happy") {
		t.Error("happy should not be a stop-word")
	}
}

func TestLoadStopwordsMissing(t *testing.T) {
	_, err := LoadStopwords(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("expected ErrArtifactLoad, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadStopwordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.yaml")
	if err := os.WriteFile(path, []byte("terms: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStopwords(path); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("expected ErrArtifactLoad for empty list, got %v", err)
	}
}

func TestLoadStopwordsCustom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.yaml")
	if err := os.WriteFile(path, []byte("terms:\n  - foo\n  - bar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stops, err := LoadStopwords(path)
	if err != nil {
		t.Fatalf("LoadStopwords: %v", err)
	}
	if !stops.IsStop("foo") || !stops.IsStop("bar") || stops.IsStop("the") {
		t.Errorf("unexpected stop-word set %v", stops.All())
	}
}

func TestLoadLemmatizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.yaml")
	content := `exceptions:
  - base: mouse
    variants: [mice]
nouns: [cat, box]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	lemm, err := LoadLemmatizer(path)
	if err != nil {
		t.Fatalf("LoadLemmatizer: %v", err)
	}

	cases := map[string]string{
		"mice":  "mouse",
		"cats":  "cat",
		"boxes": "box",
		"dogs":  "dogs", // unknown noun stays as-is
		"cat":   "cat",
	}
	for in, want := range cases {
		if got := lemm.Lemma(in); got != want {
			t.Errorf("Lemma(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLemmatizerInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.yaml")
	if err := os.WriteFile(path, []byte("nouns: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLemmatizer(path); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("expected ErrArtifactLoad, got %v", err)
	}
}

func TestDefaultLemmatizerCoverage(t *testing.T) {
	lemm, err := DefaultLemmatizer()
	if err != nil {
		t.Fatalf("DefaultLemmatizer: %v", err)
	}
	if lemm.Len() < 30000 {
		t.Errorf("embedded noun dictionary has %d entries, want a full English list", lemm.Len())
	}
	// exception bases and their common forms resolve to themselves
	for _, g := range lemm.Groups() {
		if got := lemm.Lemma(g.Base); got != g.Base {
			t.Errorf("base form %q lemmatized to %q", g.Base, got)
		}
		for _, v := range g.Variants {
			if lemm.isNoun(v) {
				// shorter dictionary entry wins, as in "bacteria"
				continue
			}
			if got := lemm.Lemma(v); got != g.Base {
				t.Errorf("Lemma(%q) = %q, want %q", v, got, g.Base)
			}
		}
	}
}

func TestLoadMissingResourceFailsNormalizer(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Error("Load should fail when the stop-word file is missing")
	}
	if _, err := Load("", ""); err != nil {
		t.Errorf("Load with embedded resources: %v", err)
	}
}

func TestStopwordsSaveWith(t *testing.T) {
	base, err := DefaultStopwords()
	if err != nil {
		t.Fatal(err)
	}
	extended := base.With("day", "im", "the")
	if extended.Len() != base.Len()+2 {
		t.Errorf("With added %d terms, want 2", extended.Len()-base.Len())
	}
	if base.IsStop("day") {
		t.Error("With must not modify the receiver")
	}

	path := filepath.Join(t.TempDir(), "stopwords.yaml")
	if err := extended.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadStopwords(path)
	if err != nil {
		t.Fatalf("LoadStopwords: %v", err)
	}
	if loaded.Len() != extended.Len() || !loaded.IsStop("im") {
		t.Errorf("round trip lost terms: %d vs %d", loaded.Len(), extended.Len())
	}
}
