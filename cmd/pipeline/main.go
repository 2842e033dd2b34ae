package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/cognicore/emodetect/pkg/emodetect/config"
	"github.com/cognicore/emodetect/pkg/emodetect/pipeline"
	"github.com/cognicore/emodetect/pkg/emodetect/registry/sqlite"
)

func main() {
	var (
		paramsPath = flag.String("config", "params.yaml", "Pipeline parameters file")
		root       = flag.String("root", ".", "Project root for data/, models/ and reports/")
		stage      = flag.String("stage", "", "Run a single stage (ingest, preprocess, features, train, evaluate); empty runs all")
		source     = flag.String("source", "", "Override data_ingestion.source (path or URL)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *paramsPath, *root, *stage, *source)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// run executes the pipeline; every resource it opens is closed before it
// returns.
func run(ctx context.Context, paramsPath, root, stage, source string) error {
	params, err := config.Load(paramsPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if source != "" {
		params.DataIngestion.Source = source
	}

	var opts []pipeline.Option
	if params.Tracking.DBPath != "" {
		tracker, err := sqlite.OpenSQLite(ctx, params.Tracking.DBPath)
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		defer tracker.Close()
		opts = append(opts, pipeline.WithTracker(tracker))
	}

	p, err := pipeline.New(params, pipeline.Layout{Root: root}, opts...)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	if stage != "" {
		if err := p.RunStage(ctx, stage); err != nil {
			return err
		}
		log.Printf("✓ Stage %s complete", stage)
		return nil
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if res.Version > 0 {
		log.Printf("✓ Pipeline complete: %s version %d (run %s)", params.Tracking.ModelName, res.Version, res.RunID)
	} else {
		log.Printf("✓ Pipeline complete: accuracy %.4f", res.Report.Accuracy)
	}
	return nil
}
