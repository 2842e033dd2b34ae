package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/emodetect/pkg/emodetect/registry"
	"github.com/cognicore/emodetect/pkg/emodetect/registry/sqlite"
)

const (
	championAlias  = "champion"
	stagingSummary = "Logistic regression on bag-of-words features of normalized tweets, predicting happiness vs sadness."
)

func main() {
	var (
		dbPath   = flag.String("db", "", "Registry database path (required)")
		infoPath = flag.String("info", "reports/model_info.json", "Model info written by the evaluate stage")
		stage    = flag.String("stage", "staging", "Target stage: staging or production")
	)
	flag.Parse()

	if err := run(context.Background(), *dbPath, *infoPath, *stage); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, dbPath, infoPath, stage string) error {
	if dbPath == "" {
		return errors.New("--db required")
	}
	target, err := registry.ParseStage(stage)
	if err != nil {
		return err
	}
	info, err := registry.LoadDescriptor(infoPath)
	if err != nil {
		return fmt.Errorf("read model info: %w", err)
	}

	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer st.Close()

	mv, err := promote(ctx, st, info, target)
	if err != nil {
		return err
	}
	log.Printf("✓ %s version %d is now in %s (aliases %v)", mv.Name, mv.Version, mv.Stage, mv.Aliases)
	return nil
}

// promote moves the described version to target. Staging records the
// description and experiment tag; Production re-points the champion alias
// and archives the previous Production version.
func promote(ctx context.Context, st registry.Store, info registry.Descriptor, target registry.Stage) (registry.ModelVersion, error) {
	name, version := info.ModelName, info.Version
	switch target {
	case registry.StageStaging:
		if err := st.UpdateDescription(ctx, name, version, stagingSummary); err != nil {
			return registry.ModelVersion{}, fmt.Errorf("update description: %w", err)
		}
		if err := st.SetTag(ctx, name, version, "experiment", "emotion detection"); err != nil {
			return registry.ModelVersion{}, fmt.Errorf("set tag: %w", err)
		}
		return st.TransitionStage(ctx, name, version, registry.StageStaging, false)

	case registry.StageProduction:
		if err := st.DeleteAlias(ctx, name, championAlias); err != nil {
			return registry.ModelVersion{}, fmt.Errorf("clear %s alias: %w", championAlias, err)
		}
		if err := st.SetAlias(ctx, name, championAlias, version); err != nil {
			return registry.ModelVersion{}, fmt.Errorf("set %s alias: %w", championAlias, err)
		}
		return st.TransitionStage(ctx, name, version, registry.StageProduction, true)
	}
	return registry.ModelVersion{}, fmt.Errorf("cannot promote to %s; use staging or production", target)
}
