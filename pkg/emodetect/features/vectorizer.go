package features

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Tokenizer names the only tokenization scheme: split on whitespace.
const Tokenizer = "whitespace"

// Vector is a bag-of-words count vector, one slot per vocabulary token.
type Vector []int

// Vocabulary is the frozen token→index mapping produced by Fit.
// It is never modified after construction, so it can be shared freely.
type Vocabulary struct {
	tokens      []string // index -> token, lexical order
	index       map[string]int
	maxFeatures int
}

// NewVocabulary builds a vocabulary from an explicit token list. Tokens are
// deduplicated and indexed in lexical order.
func NewVocabulary(tokens []string, maxFeatures int) *Vocabulary {
	seen := make(map[string]struct{}, len(tokens))
	sorted := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		sorted = append(sorted, tok)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, tok := range sorted {
		index[tok] = i
	}
	return &Vocabulary{tokens: sorted, index: index, maxFeatures: maxFeatures}
}

// Fit counts token occurrences across the corpus and keeps the maxFeatures
// most frequent tokens. Ties are broken by lexical order. maxFeatures <= 0
// keeps every token.
func Fit(corpus []string, maxFeatures int) *Vocabulary {
	counts := make(map[string]int)
	for _, doc := range corpus {
		for _, tok := range strings.Fields(doc) {
			counts[tok]++
		}
	}

	type termCount struct {
		token string
		count int
	}
	terms := make([]termCount, 0, len(counts))
	for tok, c := range counts {
		terms = append(terms, termCount{token: tok, count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].count != terms[j].count {
			return terms[i].count > terms[j].count
		}
		return terms[i].token < terms[j].token
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	kept := make([]string, len(terms))
	for i, tc := range terms {
		kept[i] = tc.token
	}
	return NewVocabulary(kept, maxFeatures)
}

// Transform counts each vocabulary token in text. Tokens outside the
// vocabulary are ignored.
func Transform(text string, vocab *Vocabulary) Vector {
	vec := make(Vector, len(vocab.tokens))
	for _, tok := range strings.Fields(text) {
		if idx, ok := vocab.index[tok]; ok {
			vec[idx]++
		}
	}
	return vec
}

// TransformAll transforms every text with the same vocabulary.
func TransformAll(texts []string, vocab *Vocabulary) []Vector {
	out := make([]Vector, len(texts))
	for i, text := range texts {
		out[i] = Transform(text, vocab)
	}
	return out
}

// FitTransform fits a vocabulary on corpus and transforms the corpus with it.
func FitTransform(corpus []string, maxFeatures int) (*Vocabulary, []Vector) {
	vocab := Fit(corpus, maxFeatures)
	return vocab, TransformAll(corpus, vocab)
}

// Len returns the vector width.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Index returns the slot of token.
func (v *Vocabulary) Index(token string) (int, bool) {
	idx, ok := v.index[token]
	return idx, ok
}

// Token returns the token stored at slot i.
func (v *Vocabulary) Token(i int) string {
	return v.tokens[i]
}

// Tokens returns a copy of the tokens in index order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// MaxFeatures returns the limit the vocabulary was fitted with.
func (v *Vocabulary) MaxFeatures() int {
	return v.maxFeatures
}

// Fingerprint is a SHA-256 digest of the token→index mapping. Two
// vocabularies with the same fingerprint produce identical vectors.
func (v *Vocabulary) Fingerprint() string {
	h := sha256.New()
	for i, tok := range v.tokens {
		fmt.Fprintf(h, "%d\t%s\n", i, tok)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// vectorizerFile is the on-disk form of a fitted vectorizer.
type vectorizerFile struct {
	Tokenizer   string   `json:"tokenizer"`
	MaxFeatures int      `json:"max_features"`
	Tokens      []string `json:"tokens"`
}

// MarshalJSON implements json.Marshaler.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(vectorizerFile{
		Tokenizer:   Tokenizer,
		MaxFeatures: v.maxFeatures,
		Tokens:      v.tokens,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Token order in the payload
// must already be lexical; anything else means the artifact was altered.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var f vectorizerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.Tokenizer != Tokenizer {
		return fmt.Errorf("unsupported tokenizer %q", f.Tokenizer)
	}
	if !sort.StringsAreSorted(f.Tokens) {
		return fmt.Errorf("vocabulary tokens are not in index order")
	}
	rebuilt := NewVocabulary(f.Tokens, f.MaxFeatures)
	if rebuilt.Len() != len(f.Tokens) {
		return fmt.Errorf("vocabulary has duplicate or empty tokens")
	}
	*v = *rebuilt
	return nil
}

// Save writes the fitted vectorizer to path as JSON.
func (v *Vocabulary) Save(path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vectorizer: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write vectorizer %s: %w", path, err)
	}
	return nil
}

// LoadVectorizer reads a vectorizer written by Save.
func LoadVectorizer(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	var v Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vectorizer %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	return &v, nil
}
