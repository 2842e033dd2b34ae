package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/cognicore/emodetect/pkg/emodetect/textnorm"
)

const header = `Noun data for the lemmatizer. Generated by emodetect-lemmas.
exceptions: irregular plurals mapped to their base form.
nouns: base forms the suffix rules may resolve to, taken from %s.`

func main() {
	var (
		wordnetDir = flag.String("wordnet", "", "WordNet dict/ directory holding index.noun and noun.exc")
		hunspell   = flag.String("hunspell", "", "Hunspell .dic file with SCOWL en_US affix flags (used when -wordnet is empty)")
		out        = flag.String("out", "pkg/emodetect/textnorm/resources/lemmas.yaml", "Output YAML path")
	)
	flag.Parse()

	if err := run(*wordnetDir, *hunspell, *out); err != nil {
		log.Fatal(err)
	}
}

func run(wordnetDir, hunspell, out string) error {
	var (
		nouns  []string
		groups []textnorm.ExceptionGroup
		source string
		err    error
	)
	switch {
	case wordnetDir != "":
		if nouns, err = readWith(filepath.Join(wordnetDir, "index.noun"), textnorm.NounsFromWordNetIndex); err != nil {
			return err
		}
		if groups, err = readWith(filepath.Join(wordnetDir, "noun.exc"), textnorm.ExceptionsFromWordNet); err != nil {
			return err
		}
		source = "WordNet index.noun and noun.exc"
	case hunspell != "":
		if nouns, err = readWith(hunspell, textnorm.NounsFromHunspell); err != nil {
			return err
		}
		// hunspell has no irregular plural table; keep the embedded one
		current, err := textnorm.DefaultLemmatizer()
		if err != nil {
			return fmt.Errorf("load embedded lemmas: %w", err)
		}
		groups = current.Groups()
		source = "the SCOWL en_US hunspell dictionary"
	default:
		return errors.New("one of -wordnet or -hunspell is required")
	}

	lemm := textnorm.NewLemmatizer(groups, nouns)
	if err := lemm.Save(out, fmt.Sprintf(header, source)); err != nil {
		return err
	}
	log.Printf("✓ Wrote %d nouns and %d exception groups to %s", lemm.Len(), len(groups), out)
	return nil
}

func readWith[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
