// Package bundle persists everything inference needs as one artifact: the
// normalizer data, the fitted vocabulary and the classifier. Loading checks
// that the three belong together.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/emodetect/pkg/emodetect/classifier"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
	"github.com/cognicore/emodetect/pkg/emodetect/textnorm"
)

// FormatVersion is bumped whenever the on-disk layout changes.
const FormatVersion = 1

// Bundle is the inference artifact.
type Bundle struct {
	FormatVersion int                  `json:"format_version"`
	RunID         string               `json:"run_id,omitempty"`
	Normalizer    textnorm.Resources   `json:"normalizer"`
	Vocabulary    *features.Vocabulary `json:"vocabulary"`
	Model         *classifier.Model    `json:"model"`
	Fingerprint   string               `json:"fingerprint"`
}

// New assembles a bundle and stamps the vocabulary fingerprint.
func New(norm *textnorm.Normalizer, vocab *features.Vocabulary, model *classifier.Model, runID string) (*Bundle, error) {
	b := &Bundle{
		FormatVersion: FormatVersion,
		RunID:         runID,
		Normalizer:    norm.Resources(),
		Vocabulary:    vocab,
		Model:         model,
		Fingerprint:   vocab.Fingerprint(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the parts are present and consistent.
func (b *Bundle) Validate() error {
	if b.FormatVersion != FormatVersion {
		return fmt.Errorf("bundle format %d, want %d: %w", b.FormatVersion, FormatVersion, internalerr.ErrArtifactLoad)
	}
	if b.Vocabulary == nil || b.Model == nil {
		return fmt.Errorf("bundle is missing vocabulary or model: %w", internalerr.ErrArtifactLoad)
	}
	if err := b.Model.Validate(); err != nil {
		return err
	}
	if got := b.Vocabulary.Fingerprint(); got != b.Fingerprint {
		return fmt.Errorf("vocabulary fingerprint %s does not match %s: %w", got, b.Fingerprint, internalerr.ErrArtifactLoad)
	}
	if b.Model.Width() != b.Vocabulary.Len() {
		return fmt.Errorf("model width %d does not match vocabulary size %d: %w",
			b.Model.Width(), b.Vocabulary.Len(), internalerr.ErrArtifactLoad)
	}
	return nil
}

// NewNormalizer rebuilds the normalizer recorded in the bundle.
func (b *Bundle) NewNormalizer() (*textnorm.Normalizer, error) {
	return textnorm.FromResources(b.Normalizer)
}

// Save writes the bundle as JSON, creating the parent directory.
func (b *Bundle) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle %s: %w", path, err)
	}
	return nil
}

// Load reads and validates a bundle.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", path, err)
	}
	return &b, nil
}
