// Package pipeline runs the company-level flow: discover the statement files
// of a company folder, extract them in a batch, check the records and hand
// them to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"tdnet_xbrl/pkg/core/extract"
	"tdnet_xbrl/pkg/core/fileio"
	"tdnet_xbrl/pkg/core/observability"
	"tdnet_xbrl/pkg/core/report"
	"tdnet_xbrl/pkg/core/store"
	"tdnet_xbrl/pkg/core/validate"
)

// ErrNoDocuments is returned when a company folder holds no statement files.
var ErrNoDocuments = errors.New("no statement files found")

// InputSource lists and loads the documents of one company folder.
// Documents that cannot be loaded come back as failed BatchResults; the
// error return is reserved for the folder itself.
// Implementations may read from:
// - a local folder laid out per company code (DirSource)
// - an in-memory set (tests)
type InputSource interface {
	Inputs(ctx context.Context, companyDir string) ([]extract.Input, []extract.BatchResult, error)
}

// BatchRunner extracts many inputs; *extract.Batch implements it.
type BatchRunner interface {
	Run(ctx context.Context, docs []extract.Input) ([]extract.BatchResult, extract.BatchSummary, error)
}

// DirSource reads the planned statement files of a company folder.
type DirSource struct{}

// Inputs implements InputSource.
func (DirSource) Inputs(ctx context.Context, companyDir string) ([]extract.Input, []extract.BatchResult, error) {
	plan, err := fileio.PlanCompany(companyDir)
	if err != nil {
		return nil, nil, err
	}
	inputs, unread, err := fileio.ReadAll(ctx, plan)
	if err != nil {
		return nil, nil, err
	}
	failed := make([]extract.BatchResult, 0, len(unread))
	for _, f := range unread {
		failed = append(failed, extract.BatchResult{DocumentID: filepath.Base(f.Path), Err: f.Err})
	}
	return inputs, failed, nil
}

// ValidationConfig defines thresholds and behavior of the record checks.
type ValidationConfig struct {
	Enabled bool
	Checks  validate.Config
}

// CompanyResult is the outcome of one company run.
type CompanyResult struct {
	CompanyDir string
	Records    []*extract.Record
	Failures   []extract.BatchResult
	Summary    extract.BatchSummary
	Linkages   []*validate.LinkageReport
	Benford    *validate.BenfordResult
	Elapsed    time.Duration
}

// PipelineOrchestrator manages the company-level data flow:
// InputSource -> Batch extraction -> Validation -> RecordSink.
type PipelineOrchestrator struct {
	source           InputSource
	batch            BatchRunner
	sink             store.RecordSink
	log              *observability.Logger
	validationConfig ValidationConfig
}

// NewPipelineOrchestrator creates an orchestrator reading company folders
// from disk. A nil sink discards records; a nil logger is silent.
func NewPipelineOrchestrator(batch BatchRunner, sink store.RecordSink, log *observability.Logger) *PipelineOrchestrator {
	if sink == nil {
		sink = store.NopStore{}
	}
	if log == nil {
		log = observability.Nop()
	}
	return &PipelineOrchestrator{
		source: DirSource{},
		batch:  batch,
		sink:   sink,
		log:    log,
		validationConfig: ValidationConfig{
			Enabled: true,
			Checks:  validate.DefaultConfig(),
		},
	}
}

// SetSource allows injecting a custom input source (e.g., for testing).
func (p *PipelineOrchestrator) SetSource(source InputSource) {
	p.source = source
}

// SetValidationConfig updates the validation configuration.
func (p *PipelineOrchestrator) SetValidationConfig(config ValidationConfig) {
	p.validationConfig = config
}

// RunForCompany executes the pipeline for a single company folder. Document
// failures are reported in the result and never stop the run; a sink error
// does.
func (p *PipelineOrchestrator) RunForCompany(ctx context.Context, companyDir string) (*CompanyResult, error) {
	log := p.log.With("company", filepath.Base(companyDir))
	start := time.Now()

	// 1. Discovery
	inputs, unread, err := p.source.Inputs(ctx, companyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents of %s: %w", companyDir, err)
	}
	if len(inputs) == 0 && len(unread) == 0 {
		return nil, fmt.Errorf("%s: %w", companyDir, ErrNoDocuments)
	}
	for _, f := range unread {
		log.Warn().Err(f.Err).Str("document", f.DocumentID).Msg("document unreadable")
	}
	log.Info().Int("documents", len(inputs)).Int("unreadable", len(unread)).Msg("company started")

	// 2. Extraction
	var (
		results []extract.BatchResult
		summary extract.BatchSummary
	)
	if len(inputs) > 0 {
		results, summary, err = p.batch.Run(ctx, inputs)
		if err != nil {
			return nil, err
		}
	}
	summary.Total += len(unread)
	summary.Failed += len(unread)

	res := &CompanyResult{CompanyDir: companyDir, Summary: summary, Failures: unread}
	for _, r := range results {
		if r.Err != nil {
			res.Failures = append(res.Failures, r)
			continue
		}
		res.Records = append(res.Records, r.Record)
	}

	// 3. Validation
	if p.validationConfig.Enabled {
		p.validateRecords(res, log)
	}

	// 4. Storage
	if err := store.SaveAll(ctx, p.sink, res.Records); err != nil {
		return res, fmt.Errorf("storage failed: %w", err)
	}

	res.Elapsed = time.Since(start)
	log.Info().
		Int("records", len(res.Records)).
		Int("failed", len(res.Failures)).
		Dur("elapsed", res.Elapsed).
		Msg("company finished")
	return res, nil
}

// RunAll runs every company folder under root in code order. A company that
// fails is logged and skipped; only cancellation stops the loop.
func (p *PipelineOrchestrator) RunAll(ctx context.Context, root string) ([]*CompanyResult, error) {
	dirs, err := fileio.CompanyDirs(root)
	if err != nil {
		return nil, err
	}

	var out []*CompanyResult
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := p.RunForCompany(ctx, dir)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return out, err
			}
			p.log.Warn().Err(err).Str("company", filepath.Base(dir)).Msg("company skipped")
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// validateRecords appends check findings to each record's diagnostics and
// records the cross-statement linkages and the first-digit screening.
func (p *PipelineOrchestrator) validateRecords(res *CompanyResult, log *observability.Logger) {
	cfg := p.validationConfig.Checks

	for _, rec := range res.Records {
		for _, d := range validate.CheckRecord(rec, cfg) {
			rec.Diagnostics = append(rec.Diagnostics, d)
			log.Warn().Str("document", rec.DocumentID).Str("fact", d.Fact).Msg(d.Message)
		}
	}

	chrono := append([]*extract.Record(nil), res.Records...)
	report.SortChronologically(chrono)
	for docID, ds := range validate.CheckSeries(chrono, cfg) {
		for _, rec := range res.Records {
			if rec.DocumentID == docID {
				rec.Diagnostics = append(rec.Diagnostics, ds...)
			}
		}
		for _, d := range ds {
			log.Warn().Str("document", docID).Str("fact", d.Fact).Msg(d.Message)
		}
	}

	res.Linkages = validate.AnnualLinkages(res.Records, cfg.TolerancePct)
	for _, l := range res.Linkages {
		if !l.AllPassed {
			log.Warn().Int("fiscal_year", l.FiscalYear).Strs("failed", l.FailedChecks).Msg("linkage check failed")
		}
	}

	benford := validate.AnalyzeBenfordsLaw(validate.ExtractValues(res.Records))
	res.Benford = &benford
	if benford.Flagged {
		log.Warn().Float64("mad", benford.MAD).Int("values", benford.TotalCount).Msg("leading digits deviate from Benford distribution")
	}
}
