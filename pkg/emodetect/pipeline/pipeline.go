// Package pipeline runs the training stages in order. Each stage reads the
// previous stage's artifacts from disk, so stages can also be run one at a
// time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cognicore/emodetect/pkg/emodetect/bundle"
	"github.com/cognicore/emodetect/pkg/emodetect/classifier"
	"github.com/cognicore/emodetect/pkg/emodetect/config"
	"github.com/cognicore/emodetect/pkg/emodetect/dataset"
	"github.com/cognicore/emodetect/pkg/emodetect/features"
	"github.com/cognicore/emodetect/pkg/emodetect/ingest"
	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
	"github.com/cognicore/emodetect/pkg/emodetect/metrics"
	"github.com/cognicore/emodetect/pkg/emodetect/registry"
)

// Stage names, in execution order.
const (
	StageIngest     = "ingest"
	StagePreprocess = "preprocess"
	StageFeatures   = "features"
	StageTrain      = "train"
	StageEvaluate   = "evaluate"
)

// Stages lists every stage in execution order.
var Stages = []string{StageIngest, StagePreprocess, StageFeatures, StageTrain, StageEvaluate}

// Pipeline holds the configuration and collaborators shared by the stages.
type Pipeline struct {
	params  *config.Params
	comp    *config.Components
	layout  Layout
	tracker registry.Store
	client  *http.Client
	logger  *log.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithTracker records runs and model versions in st. Without it the
// evaluate stage only writes local reports.
func WithTracker(st registry.Store) Option {
	return func(p *Pipeline) { p.tracker = st }
}

// WithHTTPClient sets the client used for remote data sources.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.client = c }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a pipeline from validated params. Normalizer resources are
// loaded here so a bad resource path fails before any stage runs.
func New(params *config.Params, layout Layout, opts ...Option) (*Pipeline, error) {
	comp, err := params.Build()
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		params: params,
		comp:   comp,
		layout: layout,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result summarizes a full run.
type Result struct {
	Report  metrics.Report
	RunID   string
	Version int
}

// Run executes every stage in order.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	for _, stage := range Stages[:len(Stages)-1] {
		if err := p.RunStage(ctx, stage); err != nil {
			return Result{}, err
		}
	}
	return p.Evaluate(ctx)
}

// RunStage executes one named stage.
func (p *Pipeline) RunStage(ctx context.Context, stage string) error {
	var err error
	switch stage {
	case StageIngest:
		err = p.Ingest(ctx)
	case StagePreprocess:
		err = p.Preprocess()
	case StageFeatures:
		err = p.Features()
	case StageTrain:
		err = p.Train()
	case StageEvaluate:
		_, err = p.Evaluate(ctx)
	default:
		return fmt.Errorf("unknown stage %q: %w", stage, internalerr.ErrConfig)
	}
	if err != nil {
		return fmt.Errorf("stage %s: %w", stage, err)
	}
	return nil
}

// Ingest loads the source dataset, splits it and writes the raw splits.
func (p *Pipeline) Ingest(ctx context.Context) error {
	di := p.params.DataIngestion
	records, stats, err := ingest.Load(ctx, di.Source, ingest.Options{StripHTML: di.StripHTML, Client: p.client})
	if err != nil {
		return err
	}
	p.logger.Printf("Ingested %d rows: kept %d, filtered %d, duplicates %d",
		stats.Rows, stats.Kept, stats.Filtered, stats.Duplicates)
	if len(records) == 0 {
		return fmt.Errorf("no usable records in %s: %w", di.Source, internalerr.ErrDataIngestion)
	}

	train, test, err := dataset.Split(records, di.TestSize, di.Seed)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(p.layout.RawTrain(), train); err != nil {
		return err
	}
	if err := dataset.WriteCSV(p.layout.RawTest(), test); err != nil {
		return err
	}
	p.logger.Printf("Split %d train / %d test records", len(train), len(test))
	return nil
}

// Preprocess normalizes both raw splits and drops records left too short.
func (p *Pipeline) Preprocess() error {
	for _, split := range []struct{ in, out string }{
		{p.layout.RawTrain(), p.layout.InterimTrain()},
		{p.layout.RawTest(), p.layout.InterimTest()},
	} {
		records, err := dataset.ReadCSV(split.in)
		if err != nil {
			return err
		}
		normalized := p.normalize(records)
		if err := dataset.WriteCSV(split.out, normalized); err != nil {
			return err
		}
		p.logger.Printf("Normalized %s: %d records, %d dropped", filepath.Base(split.in),
			len(normalized), len(records)-len(normalized))
	}
	return nil
}

func (p *Pipeline) normalize(records []dataset.Record) []dataset.Record {
	texts := p.comp.Normalizer.NormalizeAll(dataset.Texts(records), p.params.Preprocessing.Workers)
	out := make([]dataset.Record, len(records))
	for i, r := range records {
		out[i] = dataset.Record{Text: texts[i], Label: r.Label}
	}
	out = dataset.DropEmpty(out)
	return dataset.DropShort(out, p.params.Preprocessing.MinTokens)
}

// Features fits the vocabulary on the training split and writes both
// bag-of-words matrices plus the fitted vectorizer.
func (p *Pipeline) Features() error {
	train, err := dataset.ReadCSV(p.layout.InterimTrain())
	if err != nil {
		return err
	}
	test, err := dataset.ReadCSV(p.layout.InterimTest())
	if err != nil {
		return err
	}
	if len(train) == 0 {
		return fmt.Errorf("training split is empty after preprocessing: %w", internalerr.ErrDataIngestion)
	}

	vocab := features.Fit(dataset.Texts(train), p.params.FeatureEngineering.MaxFeatures)
	if err := features.NewMatrix(train, vocab).WriteCSV(p.layout.ProcessedTrain()); err != nil {
		return err
	}
	if err := features.NewMatrix(test, vocab).WriteCSV(p.layout.ProcessedTest()); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.layout.Vectorizer()), 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	if err := vocab.Save(p.layout.Vectorizer()); err != nil {
		return err
	}
	p.logger.Printf("Vocabulary: %d tokens (max %d)", vocab.Len(), p.params.FeatureEngineering.MaxFeatures)
	return nil
}

// Train fits the classifier and writes the model and the inference bundle.
// A convergence warning is logged and the best-effort model is kept.
func (p *Pipeline) Train() error {
	vocab, err := features.LoadVectorizer(p.layout.Vectorizer())
	if err != nil {
		return err
	}
	m, err := features.ReadMatrixCSV(p.layout.ProcessedTrain())
	if err != nil {
		return err
	}
	if err := checkColumns(m, vocab); err != nil {
		return err
	}

	model, err := classifier.Train(m.Rows, m.Labels, p.comp.Classifier)
	switch {
	case errors.Is(err, internalerr.ErrConvergence):
		p.logger.Printf("Warning: %v", err)
	case err != nil:
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.layout.Model()), 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	if err := model.Save(p.layout.Model()); err != nil {
		return err
	}

	b, err := bundle.New(p.comp.Normalizer, vocab, model, "")
	if err != nil {
		return err
	}
	if err := b.Save(p.layout.Bundle()); err != nil {
		return err
	}
	p.logger.Printf("Trained on %d records in %d iterations (converged=%v)", len(m.Rows), model.Iterations, model.Converged)
	return nil
}

// Evaluate scores the bundle on the test matrix and writes the metrics
// report. With a tracker it also records the run and registers the bundle as
// a new model version. Threshold failures are reported after every artifact
// has been written.
func (p *Pipeline) Evaluate(ctx context.Context) (Result, error) {
	b, err := bundle.Load(p.layout.Bundle())
	if err != nil {
		return Result{}, err
	}
	m, err := features.ReadMatrixCSV(p.layout.ProcessedTest())
	if err != nil {
		return Result{}, err
	}
	if err := checkColumns(m, b.Vocabulary); err != nil {
		return Result{}, err
	}

	report, err := metrics.Evaluate(b.Model, m.Rows, m.Labels)
	if err != nil {
		return Result{}, err
	}
	if err := report.Save(p.layout.Metrics()); err != nil {
		return Result{}, err
	}
	p.logger.Printf("Evaluation: accuracy=%.4f precision=%.4f recall=%.4f auc=%.4f",
		report.Accuracy, report.Precision, report.Recall, report.AUC)

	res := Result{Report: report}
	if p.tracker != nil {
		if res, err = p.track(ctx, b, report); err != nil {
			return Result{}, err
		}
	}

	if err := metrics.CheckThresholds(report, p.comp.Thresholds); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) track(ctx context.Context, b *bundle.Bundle, report metrics.Report) (Result, error) {
	tr := p.params.Tracking
	run, err := p.tracker.StartRun(ctx, tr.Experiment, p.runParams())
	if err != nil {
		return Result{}, fmt.Errorf("start run: %w", err)
	}
	logged := report.Map()
	logged["f1"] = report.F1()
	if err := p.tracker.LogMetrics(ctx, run.ID, logged); err != nil {
		return Result{}, fmt.Errorf("log metrics: %w", err)
	}

	// models/bundle.json is rewritten by every run; versions point at a
	// per-run copy so an alias keeps serving what it was set to.
	b.RunID = run.ID
	if err := b.Save(p.layout.Bundle()); err != nil {
		return Result{}, err
	}
	source := p.layout.RunBundle(run.ID)
	if err := b.Save(source); err != nil {
		return Result{}, err
	}
	mv, err := p.tracker.RegisterModel(ctx, tr.ModelName, run.ID, source)
	if err != nil {
		return Result{}, fmt.Errorf("register model: %w", err)
	}
	desc := registry.Descriptor{ModelName: mv.Name, Version: mv.Version, RunID: run.ID}
	if err := registry.SaveDescriptor(p.layout.ModelInfo(), desc); err != nil {
		return Result{}, err
	}
	p.logger.Printf("Registered %s version %d from run %s", mv.Name, mv.Version, run.ID)
	return Result{Report: report, RunID: run.ID, Version: mv.Version}, nil
}

func (p *Pipeline) runParams() map[string]string {
	pr := p.params
	return map[string]string{
		"test_size":    strconv.FormatFloat(pr.DataIngestion.TestSize, 'g', -1, 64),
		"seed":         strconv.FormatInt(pr.DataIngestion.Seed, 10),
		"min_tokens":   strconv.Itoa(pr.Preprocessing.MinTokens),
		"max_features": strconv.Itoa(pr.FeatureEngineering.MaxFeatures),
		"c":            strconv.FormatFloat(pr.ModelBuilding.C, 'g', -1, 64),
		"max_iter":     strconv.Itoa(pr.ModelBuilding.MaxIter),
		"tol":          strconv.FormatFloat(pr.ModelBuilding.Tol, 'g', -1, 64),
		"normalizer":   p.comp.Normalizer.String(),
	}
}

// checkColumns guards against matrices written with a different vocabulary.
func checkColumns(m *features.Matrix, vocab *features.Vocabulary) error {
	tokens := vocab.Tokens()
	if len(m.Columns) != len(tokens) {
		return fmt.Errorf("matrix has %d columns, vocabulary %d: %w", len(m.Columns), len(tokens), internalerr.ErrArtifactLoad)
	}
	for i, c := range m.Columns {
		if c != tokens[i] {
			return fmt.Errorf("matrix column %d is %q, vocabulary has %q: %w", i, c, tokens[i], internalerr.ErrArtifactLoad)
		}
	}
	return nil
}
