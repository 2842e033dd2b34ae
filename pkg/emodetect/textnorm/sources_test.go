package textnorm

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestNounsFromHunspell(t *testing.T) {
	dic := `7
problem/MS
word/ADSG
sad/PY
happy/URTP
feel/MRZGSJ
Paris/M
x/K
`
	got, err := NounsFromHunspell(strings.NewReader(dic))
	if err != nil {
		t.Fatalf("NounsFromHunspell: %v", err)
	}
	want := []string{"feel", "feeler", "feeling", "happiness", "problem", "sadness", "word"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("nouns = %v, want %v", got, want)
	}
}

func TestNounsFromWordNetIndex(t *testing.T) {
	index := `  1 This software and database is being provided to you, the LICENSEE, by
  2 Princeton University under the following license.
ice_cream n 1 1 @ 1 0 07614500
problem n 3 4 @ ~ + ; 3 1 14410605 05689249 14408086
word n 10 4 @ ~ + ; 10 8 06286395 07140348
zz's n 1 1 @ 1 0 00000000
`
	got, err := NounsFromWordNetIndex(strings.NewReader(index))
	if err != nil {
		t.Fatalf("NounsFromWordNetIndex: %v", err)
	}
	if want := []string{"problem", "word"}; !reflect.DeepEqual(got, want) {
		t.Errorf("nouns = %v, want %v", got, want)
	}
}

func TestExceptionsFromWordNet(t *testing.T) {
	exc := "children child\nmice mouse\naxes axis axe\nbad_line\n"
	got, err := ExceptionsFromWordNet(strings.NewReader(exc))
	if err != nil {
		t.Fatalf("ExceptionsFromWordNet: %v", err)
	}
	want := []ExceptionGroup{
		{Base: "axe", Variants: []string{"axes"}},
		{Base: "axis", Variants: []string{"axes"}},
		{Base: "child", Variants: []string{"children"}},
		{Base: "mouse", Variants: []string{"mice"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %+v, want %+v", got, want)
	}

	lemm := NewLemmatizer(got, []string{"ax"})
	// shortest candidate wins among the listed base forms
	if lemma := lemm.Lemma("axes"); lemma != "axe" {
		t.Errorf("Lemma(axes) = %q, want axe", lemma)
	}
}

func TestLemmatizerSaveLoad(t *testing.T) {
	lemm := NewLemmatizer(
		[]ExceptionGroup{{Base: "mouse", Variants: []string{"mice"}}},
		[]string{"problem", "no", "true", "word"},
	)
	path := filepath.Join(t.TempDir(), "lemmas.yaml")
	if err := lemm.Save(path, "generated for a test\nsecond line"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "# generated for a test\n# second line\n") {
		t.Errorf("header missing from %q", string(raw)[:40])
	}

	loaded, err := LoadLemmatizer(path)
	if err != nil {
		t.Fatalf("LoadLemmatizer: %v", err)
	}
	if !reflect.DeepEqual(loaded.Nouns(), lemm.Nouns()) {
		t.Errorf("nouns = %v, want %v", loaded.Nouns(), lemm.Nouns())
	}
	if !reflect.DeepEqual(loaded.Groups(), lemm.Groups()) {
		t.Errorf("groups = %+v, want %+v", loaded.Groups(), lemm.Groups())
	}
	if got := loaded.Lemma("problems"); got != "problem" {
		t.Errorf("Lemma(problems) = %q", got)
	}
}
