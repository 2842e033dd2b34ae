package registry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

func TestParseStage(t *testing.T) {
	for in, want := range map[string]Stage{
		"staging":    StageStaging,
		"Production": StageProduction,
		"NONE":       StageNone,
		"archived":   StageArchived,
	} {
		got, err := ParseStage(in)
		if err != nil || got != want {
			t.Errorf("ParseStage(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseStage("live"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIDsMonotonic(t *testing.T) {
	ids := NewIDs()
	now := time.Now()
	prev := ids.New(now)
	for i := 0; i < 100; i++ {
		next := ids.New(now)
		if next <= prev {
			t.Fatalf("IDs not increasing within one millisecond: %s then %s", prev, next)
		}
		if !ValidRunID(next) {
			t.Fatalf("invalid ID %s", next)
		}
		prev = next
	}
	if ValidRunID("not-a-ulid") {
		t.Error("garbage accepted as run ID")
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "model_info.json")
	d := Descriptor{ModelName: "emotion_detection", Version: 3, RunID: "01ARZ3NDEKTSV4RRFFQ69G5FAV"}
	if err := SaveDescriptor(path, d); err != nil {
		t.Fatalf("SaveDescriptor: %v", err)
	}
	got, err := LoadDescriptor(path)
	if err != nil {
		t.Fatalf("LoadDescriptor: %v", err)
	}
	if got != d {
		t.Errorf("LoadDescriptor = %+v, want %+v", got, d)
	}

	if _, err := LoadDescriptor(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("missing: expected ErrArtifactLoad, got %v", err)
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := SaveDescriptor(bad, Descriptor{ModelName: "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDescriptor(bad); !errors.Is(err, internalerr.ErrArtifactLoad) {
		t.Errorf("zero version: expected ErrArtifactLoad, got %v", err)
	}
}
