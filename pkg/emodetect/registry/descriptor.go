package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Descriptor is the model_info.json handoff between training and promotion.
type Descriptor struct {
	ModelName string `json:"model_name"`
	Version   int    `json:"version"`
	RunID     string `json:"run_id,omitempty"`
}

// SaveDescriptor writes d as indented JSON.
func SaveDescriptor(path string, d Descriptor) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal model info: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model info %s: %w", path, err)
	}
	return nil
}

// LoadDescriptor reads a descriptor written by SaveDescriptor.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read model info %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse model info %s: %w: %w", path, internalerr.ErrArtifactLoad, err)
	}
	if d.ModelName == "" || d.Version <= 0 {
		return Descriptor{}, fmt.Errorf("model info %s: missing model_name or version: %w", path, internalerr.ErrArtifactLoad)
	}
	return d, nil
}
