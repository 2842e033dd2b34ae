package memstore

import (
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/registry"
	"github.com/cognicore/emodetect/pkg/emodetect/registry/registrytest"
)

func TestContract(t *testing.T) {
	registrytest.Run(t, func(t *testing.T) registry.Store { return New() })
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	run, err := s.StartRun(t.Context(), "exp", map[string]string{"a": "1"})
	if err != nil {
		t.Fatal(err)
	}
	run.Params["a"] = "changed"

	got, err := s.GetRun(t.Context(), run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Params["a"] != "1" {
		t.Errorf("caller mutation leaked into the store: %v", got.Params)
	}
}
