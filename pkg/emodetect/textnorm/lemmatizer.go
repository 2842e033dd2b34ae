package textnorm

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

//go:embed resources/lemmas.yaml
var defaultLemmasYAML []byte

// nounSuffixes are the detachment rules tried for regular plurals,
// in the order WordNet's morphy applies them to nouns.
var nounSuffixes = [][2]string{
	{"s", ""},
	{"ses", "s"},
	{"ves", "f"},
	{"xes", "x"},
	{"zes", "z"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"men", "man"},
	{"ies", "y"},
}

// Lemmatizer maps inflected nouns to their dictionary base form.
//
// Lookup order:
//   - irregular forms (children → child) come from the exception index
//   - otherwise the token itself and every suffix-rule result that is a
//     known noun are candidates
//   - the shortest candidate wins; ties go to the lexically smaller one
//
// Tokens with no candidate are returned unchanged. A Lemmatizer is
// read-only after construction and safe for concurrent use.
type Lemmatizer struct {
	// variant -> base forms
	// Example: "children" -> ["child"]
	exceptions map[string][]string

	// known base forms
	nouns map[string]struct{}
}

// ExceptionGroup lists irregular variants of one base form.
type ExceptionGroup struct {
	Base     string   `yaml:"base" json:"base"`
	Variants []string `yaml:"variants" json:"variants"`
}

// NewLemmatizer builds a lemmatizer from exception groups and a noun list.
// Everything is lower-cased.
func NewLemmatizer(groups []ExceptionGroup, nouns []string) *Lemmatizer {
	l := &Lemmatizer{
		exceptions: make(map[string][]string),
		nouns:      make(map[string]struct{}, len(nouns)),
	}
	for _, n := range nouns {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			l.nouns[n] = struct{}{}
		}
	}
	for _, g := range groups {
		base := strings.ToLower(strings.TrimSpace(g.Base))
		if base == "" {
			continue
		}
		// base forms are always valid lemmas
		l.nouns[base] = struct{}{}
		for _, v := range g.Variants {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" || v == base {
				continue
			}
			l.exceptions[v] = appendUnique(l.exceptions[v], base)
		}
	}
	return l
}

// DefaultLemmatizer returns the lemmatizer backed by the embedded noun data.
func DefaultLemmatizer() (*Lemmatizer, error) {
	return parseLemmas(defaultLemmasYAML, "embedded lemmas")
}

// LoadLemmatizer reads lemmatizer data from a YAML file.
//
// Expected format:
//
//	exceptions:
//	  - base: child
//	    variants: [children]
//	nouns: [child, day, party]
func LoadLemmatizer(path string) (*Lemmatizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lemmas %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	return parseLemmas(data, path)
}

func parseLemmas(data []byte, source string) (*Lemmatizer, error) {
	var cfg struct {
		Exceptions []ExceptionGroup `yaml:"exceptions"`
		Nouns      []string         `yaml:"nouns"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse lemmas %s: %w: %w", source, internalerr.ErrArtifactLoad, err)
	}
	if len(cfg.Nouns) == 0 && len(cfg.Exceptions) == 0 {
		return nil, fmt.Errorf("lemmas %s: %w: empty dictionary", source, internalerr.ErrArtifactLoad)
	}
	return NewLemmatizer(cfg.Exceptions, cfg.Nouns), nil
}

// Lemma returns the base form of a single token.
//
// Examples:
//   - Lemma("children") -> "child"
//   - Lemma("parties")  -> "party"
//   - Lemma("ughhh")    -> "ughhh"
func (l *Lemmatizer) Lemma(token string) string {
	if token == "" {
		return token
	}

	var candidates []string
	if bases, ok := l.exceptions[token]; ok {
		candidates = append(candidates, bases...)
		if l.isNoun(token) {
			candidates = append(candidates, token)
		}
	} else {
		if l.isNoun(token) {
			candidates = append(candidates, token)
		}
		for _, rule := range nounSuffixes {
			if !strings.HasSuffix(token, rule[0]) {
				continue
			}
			form := strings.TrimSuffix(token, rule[0]) + rule[1]
			if form != "" && l.isNoun(form) {
				candidates = append(candidates, form)
			}
		}
	}

	if len(candidates) == 0 {
		return token
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0]
}

// Groups returns the exception index regrouped by base form, sorted.
func (l *Lemmatizer) Groups() []ExceptionGroup {
	byBase := make(map[string][]string)
	for variant, bases := range l.exceptions {
		for _, b := range bases {
			byBase[b] = append(byBase[b], variant)
		}
	}
	groups := make([]ExceptionGroup, 0, len(byBase))
	for base, variants := range byBase {
		sort.Strings(variants)
		groups = append(groups, ExceptionGroup{Base: base, Variants: variants})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Base < groups[j].Base })
	return groups
}

// Nouns returns the known base forms in lexical order.
func (l *Lemmatizer) Nouns() []string {
	out := make([]string, 0, len(l.nouns))
	for n := range l.nouns {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of known base forms.
func (l *Lemmatizer) Len() int {
	return len(l.nouns)
}

func (l *Lemmatizer) isNoun(token string) bool {
	_, ok := l.nouns[token]
	return ok
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
