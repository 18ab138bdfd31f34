// Package pipeline wires extraction, normalization and reconciliation into a
// single comparison run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/rollcheck/internal/extract"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/model"
	"github.com/cleared-dev/rollcheck/internal/normalize"
	"github.com/cleared-dev/rollcheck/internal/reconcile"
)

// Pipeline compares an actual rent roll with an Argus rent roll.
type Pipeline struct {
	Extractor   extract.Extractor
	Normalizers *normalize.Registry
	Threshold   decimal.Decimal

	// Timeout bounds each extraction. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// New creates a Pipeline with the default normalizers.
func New(ext extract.Extractor, threshold decimal.Decimal) *Pipeline {
	return &Pipeline{
		Extractor:   ext,
		Normalizers: normalize.DefaultRegistry(),
		Threshold:   threshold,
	}
}

// Run is the outcome of one comparison.
type Run struct {
	ID     uuid.UUID
	Actual []model.UnitRecord
	Argus  []model.UnitRecord
	Result *model.ReconciliationResult
}

// Compare extracts and normalizes both documents concurrently, then
// reconciles them. The first failure cancels the other branch and no result
// is returned.
func (p *Pipeline) Compare(ctx context.Context, actualPath, argusPath string) (*Run, error) {
	run := &Run{ID: uuid.New()}
	ctx = logging.With(ctx, "run_id", run.ID.String())
	log := logging.FromContext(ctx)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		units, err := p.load(gctx, extract.Document{Path: actualPath, Kind: model.KindActual})
		run.Actual = units
		return err
	})
	g.Go(func() error {
		units, err := p.load(gctx, extract.Document{Path: argusPath, Kind: model.KindArgus})
		run.Argus = units
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("comparison failed")
		return nil, err
	}

	res, err := reconcile.Reconcile(run.Actual, run.Argus, p.Threshold)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation failed")
		return nil, err
	}
	run.Result = res

	log.Info().
		Int("actual_units", len(run.Actual)).
		Int("argus_units", len(run.Argus)).
		Int("discrepancies", len(res.Discrepancies)).
		Dur("elapsed", time.Since(start)).
		Msg("comparison complete")
	return run, nil
}

// CompareRaw normalizes two raw extractions and reconciles them.
func (p *Pipeline) CompareRaw(actualRaw, argusRaw any) (*Run, error) {
	run := &Run{ID: uuid.New()}

	var err error
	if run.Actual, err = p.normalize(model.KindActual, actualRaw); err != nil {
		return nil, err
	}
	if run.Argus, err = p.normalize(model.KindArgus, argusRaw); err != nil {
		return nil, err
	}
	if run.Result, err = reconcile.Reconcile(run.Actual, run.Argus, p.Threshold); err != nil {
		return nil, err
	}
	return run, nil
}

func (p *Pipeline) load(ctx context.Context, doc extract.Document) ([]model.UnitRecord, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	log := logging.FromContext(ctx).With().Str("kind", string(doc.Kind)).Str("path", doc.Path).Logger()

	ext, err := p.Extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("backend", p.Extractor.Name()).Int("pages", len(ext.Pages)).Msg("extracted")

	units, err := p.normalize(doc.Kind, ext.Raw)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("units", len(units)).Msg("normalized")
	return units, nil
}

func (p *Pipeline) normalize(kind model.RollKind, raw any) ([]model.UnitRecord, error) {
	reg := p.Normalizers
	if reg == nil {
		reg = normalize.DefaultRegistry()
	}
	n := reg.Get(kind)
	if n == nil {
		return nil, fmt.Errorf("no normalizer registered for %q", kind)
	}
	return n.Normalize(raw)
}
