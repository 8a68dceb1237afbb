// Package extract turns one inline-XBRL disclosure into a Record: it detects
// the statement kind and accounting standard, extracts every canonical fact
// through the tag resolver with a single table fallback hop, and classifies
// the reporting period.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tdnet_xbrl/pkg/core/diag"
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/ixbrl"
	"tdnet_xbrl/pkg/core/observability"
	"tdnet_xbrl/pkg/core/period"
)

// ErrUnrecognizedDocument is returned when neither the file name nor the
// content identifies a supported statement kind.
var ErrUnrecognizedDocument = errors.New("unrecognized document")

// Options configures an Orchestrator. Zero values fall back to defaults.
type Options struct {
	TargetExponent int // 0 means hundred-million yen (-8)
	StandardPolicy StandardPolicy
	Calendar       *period.Calendar
	Labels         map[string][]string // per-fact label synonym overrides
	Logger         *observability.Logger
	Now            func() time.Time
}

// Orchestrator extracts records from documents. It holds no per-document
// state and is safe for concurrent use.
type Orchestrator struct {
	resolver   *ixbrl.Resolver
	normalizer *ixbrl.Normalizer
	table      *ixbrl.TableFallback
	vocab      *Vocabulary
	classifier *period.Classifier
	policy     StandardPolicy
	log        *observability.Logger
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator from opts.
func NewOrchestrator(opts Options) *Orchestrator {
	target := opts.TargetExponent
	if target == 0 {
		target = ixbrl.DefaultTargetExponent
	}
	cal := opts.Calendar
	if cal == nil {
		cal = period.DefaultCalendar()
	}
	policy := opts.StandardPolicy
	if !policy.Default.Valid() {
		policy = DefaultStandardPolicy()
	}
	log := opts.Logger
	if log == nil {
		log = observability.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		resolver:   ixbrl.NewResolver(),
		normalizer: ixbrl.NewNormalizer(target),
		table:      ixbrl.NewTableFallback(target),
		vocab:      NewVocabulary(opts.Labels),
		classifier: period.NewClassifier(cal),
		policy:     policy,
		log:        log,
		now:        now,
	}
}

// Vocabulary returns the label-aware vocabulary in use.
func (o *Orchestrator) Vocabulary() *Vocabulary {
	return o.vocab
}

// Extract processes one document. The only error conditions are a cancelled
// context, an unparseable HTML body and ErrUnrecognizedDocument; everything
// else degrades to nil facts plus diagnostics on the record.
func (o *Orchestrator) Extract(ctx context.Context, in Input) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	diags := &diag.List{}
	log := o.log.With("document", in.DocumentID())

	info, err := filename.Parse(in.Filename)
	if err != nil {
		diags.Add(diag.MissingMetadata, diag.Warn, "", "%s: %v", in.Filename, err)
	}

	doc, err := ixbrl.ParseBytes(in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", in.DocumentID(), err)
	}

	statement := in.Statement
	if statement == filename.StatementUnknown {
		statement = info.Statement
	}
	if statement == filename.StatementUnknown {
		statement = detectStatement(doc)
	}
	if statement == filename.StatementUnknown {
		log.Warn().Str("filename", in.Filename).Msg("no statement kind in file name or content")
		return nil, fmt.Errorf("%s: %w", in.DocumentID(), ErrUnrecognizedDocument)
	}

	standard := DetectStandard(doc, info, o.policy, diags)

	rec := &Record{
		ID:           uuid.New().String(),
		DocumentID:   in.DocumentID(),
		Filename:     info.Name,
		CompanyCode:  info.CompanyCode,
		CompanyName:  ixbrl.CompanyName(doc),
		Statement:    statement,
		Cadence:      info.Cadence,
		Consolidated: info.Consolidated,
		Standard:     standard,
		PublicDate:   info.PublicDate(),
		Facts:        make(map[string]*float64),
		Details:      make(map[string]ixbrl.ExtractedFact),
	}
	if rec.Filename == "" || rec.Filename == "." {
		rec.Filename = in.Filename
	}
	if pt, ok := ixbrl.TypeOfCurrentPeriod(doc); ok {
		rec.PeriodType = pt
	}

	for _, q := range o.vocab.Queries(statement, standard) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction of %s interrupted: %w", in.DocumentID(), err)
		}
		fact := o.extractFact(ctx, doc, q, diags)
		rec.Facts[q.Fact] = fact.Value
		rec.Details[q.Fact] = fact
	}

	rec.PeriodEndDate = info.PeriodEndDate()
	if rec.PeriodEndDate == "" {
		if d, ok := ixbrl.PeriodEndDate(doc); ok && d != "" {
			rec.PeriodEndDate = d
		} else {
			diags.Add(diag.MissingMetadata, diag.Warn, "", "no period end date in file name or DEI")
		}
	}
	cls := o.classifier.Classify(rec.CompanyCode, doc.Raw(), rec.PeriodEndDate, diags)
	rec.Quarter = cls.Quarter
	rec.FiscalYear = cls.FiscalYear

	rec.Diagnostics = diags.Items()
	rec.ExtractedAt = o.now()

	for _, d := range rec.Diagnostics {
		if d.Severity == diag.Warn {
			log.Debug().Str("kind", string(d.Kind)).Str("fact", d.Fact).Msg(d.Message)
		}
	}
	log.Info().
		Str("company", rec.CompanyCode).
		Str("statement", string(rec.Statement)).
		Str("standard", rec.Standard.String()).
		Str("quarter", string(rec.Quarter)).
		Int("missing", len(rec.Missing())).
		Int("diagnostics", len(rec.Diagnostics)).
		Dur("elapsed", time.Since(start)).
		Msg("document extracted")

	return rec, nil
}

// extractFact runs the per-fact state machine: resolve each candidate element
// name in turn, normalize the first one found, and fall back to the table scan
// exactly once if that yields no value.
func (o *Orchestrator) extractFact(ctx context.Context, doc *ixbrl.Document, q ixbrl.FactQuery, diags *diag.List) ixbrl.ExtractedFact {
	var tagged *ixbrl.ExtractedFact
	for _, name := range q.Elements() {
		m := o.resolver.Resolve(doc, name, q.Kind)
		if m == nil {
			continue
		}
		fact := o.normalizer.Normalize(m.Element, q, diags)
		if m.Confidence == ixbrl.ConfidenceLow {
			fact.Source = ixbrl.SourceTagUnconstrained
			fact.LowConfidence = true
			diags.Add(diag.LowConfidenceContext, diag.Warn, q.Fact,
				"%s matched without a known context (contextRef %q)", name, m.Element.ContextRef)
		}
		tagged = &fact
		break
	}

	if tagged != nil && tagged.Value != nil {
		return *tagged
	}

	fb := o.table.Find(ctx, doc, q, diags)
	if fb.Value != nil {
		return fb
	}
	if tagged != nil {
		return *tagged
	}

	diags.Add(diag.MissingFact, diag.Warn, q.Fact, "no tag or table row found for %s", q.Element)
	fb.Element = q.Element
	return fb
}
