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

//go:embed resources/stopwords.yaml
var defaultStopwordsYAML []byte

// Stopwords is a fixed set of tokens dropped by RemoveStopwords.
// It is read-only after construction and safe for concurrent use.
type Stopwords struct {
	terms map[string]struct{}
}

// NewStopwords builds a stop-word set. Terms are matched exactly, so they
// are expected in lower case.
func NewStopwords(terms []string) *Stopwords {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return &Stopwords{terms: set}
}

// DefaultStopwords returns the embedded English stop-word list.
func DefaultStopwords() (*Stopwords, error) {
	return parseStopwords(defaultStopwordsYAML, "embedded stopwords")
}

// LoadStopwords reads a stop-word list from a YAML file of the form
//
//	terms: [i, me, my, ...]
func LoadStopwords(path string) (*Stopwords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	return parseStopwords(data, path)
}

func parseStopwords(data []byte, source string) (*Stopwords, error) {
	var sl struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stopwords %s: %w: %w", source, internalerr.ErrArtifactLoad, err)
	}
	if len(sl.Terms) == 0 {
		return nil, fmt.Errorf("stopwords %s: %w: no terms", source, internalerr.ErrArtifactLoad)
	}
	return NewStopwords(sl.Terms), nil
}

// IsStop reports whether token is a stop-word.
func (s *Stopwords) IsStop(token string) bool {
	_, ok := s.terms[token]
	return ok
}

// Len returns the number of stop-words.
func (s *Stopwords) Len() int {
	return len(s.terms)
}

// All returns the stop-words in lexical order.
func (s *Stopwords) All() []string {
	out := make([]string, 0, len(s.terms))
	for t := range s.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Save writes the set in the YAML form LoadStopwords reads.
func (s *Stopwords) Save(path string) error {
	data := struct {
		Terms []string `yaml:"terms"`
	}{Terms: s.All()}
	buf, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal stopwords: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write stopwords %s: %w", path, err)
	}
	return nil
}

// With returns a new set holding s plus extra.
func (s *Stopwords) With(extra ...string) *Stopwords {
	return NewStopwords(append(s.All(), extra...))
}
