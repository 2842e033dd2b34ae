package textnorm

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Punctuation is the character set RemovePunctuation replaces with spaces.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var urlPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// Normalizer turns raw text into the canonical form the vectorizer expects:
// lower-case, stop-words removed, digits and punctuation stripped, URLs
// removed, nouns lemmatized.
//
// The stages are order-sensitive and run in exactly that sequence.
// A Normalizer is immutable and safe for concurrent use.
type Normalizer struct {
	stopwords  *Stopwords
	lemmatizer *Lemmatizer
}

// New creates a normalizer from its two resources.
func New(stopwords *Stopwords, lemmatizer *Lemmatizer) *Normalizer {
	return &Normalizer{stopwords: stopwords, lemmatizer: lemmatizer}
}

// Default builds a normalizer from the embedded English resources.
func Default() (*Normalizer, error) {
	stops, err := DefaultStopwords()
	if err != nil {
		return nil, err
	}
	lemm, err := DefaultLemmatizer()
	if err != nil {
		return nil, err
	}
	return New(stops, lemm), nil
}

// Load builds a normalizer, reading each resource from its path when one is
// given and falling back to the embedded resource otherwise.
func Load(stopwordsPath, lemmasPath string) (*Normalizer, error) {
	var (
		stops *Stopwords
		lemm  *Lemmatizer
		err   error
	)
	if stopwordsPath != "" {
		stops, err = LoadStopwords(stopwordsPath)
	} else {
		stops, err = DefaultStopwords()
	}
	if err != nil {
		return nil, err
	}
	if lemmasPath != "" {
		lemm, err = LoadLemmatizer(lemmasPath)
	} else {
		lemm, err = DefaultLemmatizer()
	}
	if err != nil {
		return nil, err
	}
	return New(stops, lemm), nil
}

// Stopwords returns the stop-word set in use.
func (n *Normalizer) Stopwords() *Stopwords {
	return n.stopwords
}

// Normalize runs text through every stage.
func (n *Normalizer) Normalize(text string) string {
	text = LowerCase(text)
	text = n.RemoveStopwords(text)
	text = RemoveDigits(text)
	text = RemovePunctuation(text)
	text = RemoveURLs(text)
	text = n.Lemmatize(text)
	return text
}

// NormalizeAll normalizes texts using up to workers goroutines.
// The result has the same order as the input.
func (n *Normalizer) NormalizeAll(texts []string, workers int) []string {
	out := make([]string, len(texts))
	if workers <= 1 || len(texts) < 2*workers {
		for i, t := range texts {
			out[i] = n.Normalize(t)
		}
		return out
	}

	chunk := (len(texts) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += chunk {
		end := min(start+chunk, len(texts))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				out[i] = n.Normalize(texts[i])
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// LowerCase splits on whitespace, lower-cases each token and rejoins them
// with single spaces.
func LowerCase(text string) string {
	// Casers keep state; one per call keeps this safe for concurrent use.
	lower := cases.Lower(language.Und)
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		tokens[i] = lower.String(tok)
	}
	return strings.Join(tokens, " ")
}

// RemoveStopwords drops whitespace-separated tokens found in the stop-word set.
func (n *Normalizer) RemoveStopwords(text string) string {
	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if !n.stopwords.IsStop(tok) {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// RemoveDigits drops every decimal digit character, leaving the rest of
// the token in place: "abc123" becomes "abc".
func RemoveDigits(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, text)
}

// RemovePunctuation replaces punctuation with spaces, collapses whitespace
// runs and trims the result.
func RemovePunctuation(text string) string {
	text = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && strings.ContainsRune(Punctuation, r) {
			return ' '
		}
		return r
	}, text)
	text = strings.ReplaceAll(text, ":", "")
	return strings.Join(strings.Fields(text), " ")
}

// RemoveURLs strips http(s):// and www. links. Surrounding whitespace is
// left untouched.
func RemoveURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

// Lemmatize replaces every whitespace-separated token with its base form.
func (n *Normalizer) Lemmatize(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		tokens[i] = n.lemmatizer.Lemma(tok)
	}
	return strings.Join(tokens, " ")
}

// String describes the normalizer resources, mainly for logs.
func (n *Normalizer) String() string {
	return fmt.Sprintf("textnorm(stopwords=%d, lemmas=%d)", n.stopwords.Len(), n.lemmatizer.Len())
}

// Resources is the serializable form of a normalizer's data. It travels
// inside the inference bundle so serving rebuilds the exact normalizer
// used at training time.
type Resources struct {
	Stopwords  []string         `json:"stopwords"`
	Exceptions []ExceptionGroup `json:"exceptions"`
	Nouns      []string         `json:"nouns"`
}

// Resources exports the normalizer data.
func (n *Normalizer) Resources() Resources {
	return Resources{
		Stopwords:  n.stopwords.All(),
		Exceptions: n.lemmatizer.Groups(),
		Nouns:      n.lemmatizer.Nouns(),
	}
}

// FromResources rebuilds a normalizer from exported data.
func FromResources(r Resources) (*Normalizer, error) {
	if len(r.Stopwords) == 0 {
		return nil, fmt.Errorf("normalizer resources: %w: no stopwords", internalerr.ErrArtifactLoad)
	}
	if len(r.Nouns) == 0 && len(r.Exceptions) == 0 {
		return nil, fmt.Errorf("normalizer resources: %w: no lemma data", internalerr.ErrArtifactLoad)
	}
	return New(NewStopwords(r.Stopwords), NewLemmatizer(r.Exceptions, r.Nouns)), nil
}
