// Package registrytest holds behavior checks shared by every registry.Store
// implementation.
package registrytest

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
	"github.com/cognicore/emodetect/pkg/emodetect/registry"
)

// Run exercises open against the registry contract. open must return an
// empty store; Run closes it.
func Run(t *testing.T, open func(t *testing.T) registry.Store) {
	t.Helper()
	tests := map[string]func(*testing.T, registry.Store){
		"runs":          testRuns,
		"versions":      testVersions,
		"stages":        testStages,
		"aliases":       testAliases,
		"not found":     testNotFound,
		"invalid input": testInvalidInput,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			st := open(t)
			defer st.Close()
			fn(t, st)
		})
	}
}

func testRuns(t *testing.T, st registry.Store) {
	ctx := context.Background()
	run, err := st.StartRun(ctx, "dvc-pipeline", map[string]string{"max_features": "1000"})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if !registry.ValidRunID(run.ID) {
		t.Errorf("run ID %q is not a ULID", run.ID)
	}
	if err := st.LogMetrics(ctx, run.ID, map[string]float64{"accuracy": 0.5, "auc": 0.7}); err != nil {
		t.Fatalf("LogMetrics: %v", err)
	}
	if err := st.LogMetrics(ctx, run.ID, map[string]float64{"accuracy": 0.8}); err != nil {
		t.Fatalf("LogMetrics again: %v", err)
	}

	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Experiment != "dvc-pipeline" || got.Params["max_features"] != "1000" {
		t.Errorf("run = %+v", got)
	}
	if got.Metrics["accuracy"] != 0.8 || got.Metrics["auc"] != 0.7 {
		t.Errorf("metrics = %v", got.Metrics)
	}

	second, err := st.StartRun(ctx, "dvc-pipeline", nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID <= run.ID {
		t.Errorf("run IDs not increasing: %s then %s", run.ID, second.ID)
	}
}

func testVersions(t *testing.T, st registry.Store) {
	ctx := context.Background()
	run, err := st.StartRun(ctx, "exp", nil)
	if err != nil {
		t.Fatal(err)
	}
	for want := 1; want <= 3; want++ {
		mv, err := st.RegisterModel(ctx, "emotion_detection", run.ID, "models/bundle.json")
		if err != nil {
			t.Fatalf("RegisterModel: %v", err)
		}
		if mv.Version != want || mv.Stage != registry.StageNone {
			t.Errorf("registered %+v, want version %d in None", mv, want)
		}
	}
	other, err := st.RegisterModel(ctx, "other", "", "x")
	if err != nil {
		t.Fatal(err)
	}
	if other.Version != 1 {
		t.Errorf("versions are per name, got %d", other.Version)
	}

	if err := st.UpdateDescription(ctx, "emotion_detection", 2, "bag of words"); err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	if err := st.SetTag(ctx, "emotion_detection", 2, "experiment", "emotion detection"); err != nil {
		t.Fatalf("SetTag: %v", err)
	}
	mv, err := st.GetVersion(ctx, "emotion_detection", 2)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if mv.Description != "bag of words" || mv.Tags["experiment"] != "emotion detection" {
		t.Errorf("version 2 = %+v", mv)
	}
	if mv.RunID != run.ID || mv.Source != "models/bundle.json" {
		t.Errorf("version 2 provenance = %+v", mv)
	}

	all, err := st.ListVersions(ctx, "emotion_detection")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(all) != 3 || all[0].Version != 1 || all[2].Version != 3 {
		t.Errorf("ListVersions = %+v", all)
	}
}

func testStages(t *testing.T, st registry.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := st.RegisterModel(ctx, "m", "", "src"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := st.TransitionStage(ctx, "m", 1, registry.StageProduction, false); err != nil {
		t.Fatal(err)
	}
	if _, err := st.TransitionStage(ctx, "m", 2, registry.StageStaging, false); err != nil {
		t.Fatal(err)
	}

	mv, err := st.TransitionStage(ctx, "m", 3, registry.StageProduction, true)
	if err != nil {
		t.Fatalf("TransitionStage: %v", err)
	}
	if mv.Stage != registry.StageProduction {
		t.Errorf("version 3 stage %s", mv.Stage)
	}
	want := map[int]registry.Stage{1: registry.StageArchived, 2: registry.StageStaging, 3: registry.StageProduction}
	for v, stage := range want {
		got, err := st.GetVersion(ctx, "m", v)
		if err != nil {
			t.Fatal(err)
		}
		if got.Stage != stage {
			t.Errorf("version %d stage %s, want %s", v, got.Stage, stage)
		}
	}
}

func testAliases(t *testing.T, st registry.Store) {
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := st.RegisterModel(ctx, "m", "", "src"); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.SetAlias(ctx, "m", "champion", 1); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	if err := st.SetAlias(ctx, "m", "champion", 2); err != nil {
		t.Fatalf("SetAlias move: %v", err)
	}
	mv, err := st.GetByAlias(ctx, "m", "champion")
	if err != nil {
		t.Fatalf("GetByAlias: %v", err)
	}
	if mv.Version != 2 || len(mv.Aliases) != 1 || mv.Aliases[0] != "champion" {
		t.Errorf("champion -> %+v", mv)
	}
	old, err := st.GetVersion(ctx, "m", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(old.Aliases) != 0 {
		t.Errorf("version 1 still has aliases %v", old.Aliases)
	}

	if err := st.DeleteAlias(ctx, "m", "champion"); err != nil {
		t.Fatalf("DeleteAlias: %v", err)
	}
	if err := st.DeleteAlias(ctx, "m", "champion"); err != nil {
		t.Errorf("deleting a missing alias should succeed: %v", err)
	}
	if _, err := st.GetByAlias(ctx, "m", "champion"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func testNotFound(t *testing.T, st registry.Store) {
	ctx := context.Background()
	checks := map[string]error{}
	_, checks["GetRun"] = st.GetRun(ctx, "missing")
	checks["LogMetrics"] = st.LogMetrics(ctx, "missing", map[string]float64{"a": 1})
	_, checks["RegisterModel"] = st.RegisterModel(ctx, "m", "missing-run", "src")
	_, checks["GetVersion"] = st.GetVersion(ctx, "m", 7)
	checks["UpdateDescription"] = st.UpdateDescription(ctx, "m", 7, "d")
	checks["SetTag"] = st.SetTag(ctx, "m", 7, "k", "v")
	_, checks["TransitionStage"] = st.TransitionStage(ctx, "m", 7, registry.StageStaging, false)
	checks["SetAlias"] = st.SetAlias(ctx, "m", "champion", 7)
	_, checks["GetByAlias"] = st.GetByAlias(ctx, "m", "champion")
	for op, err := range checks {
		if !errors.Is(err, internalerr.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", op, err)
		}
	}
}

func testInvalidInput(t *testing.T, st registry.Store) {
	ctx := context.Background()
	if _, err := st.StartRun(ctx, "", nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty experiment: %v", err)
	}
	if _, err := st.RegisterModel(ctx, " ", "", "src"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty model name: %v", err)
	}
	if _, err := st.RegisterModel(ctx, "m", "", "src"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.TransitionStage(ctx, "m", 1, registry.Stage("Live"), false); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("bad stage: %v", err)
	}
	if err := st.SetAlias(ctx, "m", "", 1); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty alias: %v", err)
	}
}
