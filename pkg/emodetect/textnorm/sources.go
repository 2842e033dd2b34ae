package textnorm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// NounsFromHunspell extracts noun base forms from a hunspell .dic file
// that uses the SCOWL en_US affix flags.
//
// A lower-case stem counts as a noun when it carries the plural (S) or
// possessive (M) flag. Nouns derived through other flags are added too:
// Z adds the -er form, X the -ion form, J the -ing form, P the -ness form
// and L the -ment form.
func NounsFromHunspell(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			// leading entry count
			if isDigits(line) {
				continue
			}
		}
		word, flags, _ := strings.Cut(line, "/")
		if !isLowerAlpha(word) {
			continue
		}
		if strings.ContainsAny(flags, "SM") {
			seen[word] = struct{}{}
		}
		for _, d := range hunspellDerivations {
			if strings.ContainsRune(flags, d.flag) {
				seen[d.derive(word)] = struct{}{}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hunspell dictionary: %w", err)
	}
	return sortedKeys(seen), nil
}

var hunspellDerivations = []struct {
	flag   rune
	derive func(string) string
}{
	{'Z', func(w string) string {
		switch {
		case strings.HasSuffix(w, "e"):
			return w + "r"
		case consonantY(w):
			return w[:len(w)-1] + "ier"
		}
		return w + "er"
	}},
	{'X', func(w string) string {
		switch {
		case strings.HasSuffix(w, "e"):
			return w[:len(w)-1] + "ion"
		case strings.HasSuffix(w, "y"):
			return w[:len(w)-1] + "ication"
		}
		return w + "en"
	}},
	{'J', func(w string) string {
		return strings.TrimSuffix(w, "e") + "ing"
	}},
	{'P', func(w string) string {
		if consonantY(w) {
			return w[:len(w)-1] + "iness"
		}
		return w + "ness"
	}},
	{'L', func(w string) string { return w + "ment" }},
}

// NounsFromWordNetIndex reads the lemmas of a WordNet index.noun file.
// Collocations (lemmas containing underscores) and lemmas with characters
// other than a-z are skipped, since normalized tokens never contain them.
func NounsFromWordNetIndex(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		// license header lines start with spaces
		if line == "" || line[0] == ' ' {
			continue
		}
		lemma, _, _ := strings.Cut(line, " ")
		if isLowerAlpha(lemma) {
			seen[lemma] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordnet index: %w", err)
	}
	return sortedKeys(seen), nil
}

// ExceptionsFromWordNet reads a WordNet noun.exc file: each line holds an
// inflected form followed by one or more base forms.
func ExceptionsFromWordNet(r io.Reader) ([]ExceptionGroup, error) {
	variants := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !isLowerAlpha(fields[0]) {
			continue
		}
		for _, base := range fields[1:] {
			if isLowerAlpha(base) {
				variants[base] = appendUnique(variants[base], fields[0])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordnet exceptions: %w", err)
	}
	groups := make([]ExceptionGroup, 0, len(variants))
	for base, vs := range variants {
		sort.Strings(vs)
		groups = append(groups, ExceptionGroup{Base: base, Variants: vs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Base < groups[j].Base })
	return groups, nil
}

// Save writes the lemmatizer data in the YAML form LoadLemmatizer reads,
// preceded by header as a comment block when it is not empty.
func (l *Lemmatizer) Save(path, header string) error {
	data := struct {
		Exceptions []ExceptionGroup `yaml:"exceptions"`
		Nouns      []string         `yaml:"nouns"`
	}{Exceptions: l.Groups(), Nouns: l.Nouns()}

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(header), "\n") {
		if line != "" {
			b.WriteString("# " + line + "\n")
		}
	}
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("marshal lemmas: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal lemmas: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write lemmas %s: %w", path, err)
	}
	return nil
}

func consonantY(w string) bool {
	n := len(w)
	return n >= 2 && w[n-1] == 'y' && !strings.ContainsRune("aeiou", rune(w[n-2]))
}

func isLowerAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
