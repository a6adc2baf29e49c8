// Package batch computes isotope distributions for every row of a target
// list and streams them to a spectrum sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/filter"
	"github.com/ChrisMcGann/IsoDist/pkg/isotope"
	"github.com/ChrisMcGann/IsoDist/pkg/reader/targets"
)

const defaultProgressEvery = 1000

// Sink receives computed spectra in input order. The SQLite and MSP
// writers implement it.
type Sink interface {
	WriteSpectrum(spec *core.Spectrum) error
}

// Options configures a Runner
type Options struct {
	Config        isotope.Config
	Filter        *filter.Config // nil keeps every peak
	ModDB         *core.ModDatabase
	Threads       int // Worker goroutines, at least 1
	ProgressEvery int // Log progress every N written spectra, 0 for the default
	Logger        *zap.Logger
}

// Stats summarizes a run
type Stats struct {
	Written int
	Skipped int
}

// Runner computes target lists on a fixed pool of workers.
type Runner struct {
	calc *isotope.Calculator
	opts Options
}

// NewRunner creates a runner computing with calc.
func NewRunner(calc *isotope.Calculator, opts Options) *Runner {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	if opts.ModDB == nil {
		opts.ModDB = core.DefaultModDatabase()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{calc: calc, opts: opts}
}

type job struct {
	target *targets.Target
	result chan result
}

type result struct {
	target *targets.Target
	spec   *core.Spectrum
	err    error
}

// Run reads every target from src, computes it and writes the spectrum to
// sink in input order. Targets that fail to resolve or compute are logged
// and skipped. Read errors, sink errors and cancellation stop the run.
func (r *Runner) Run(ctx context.Context, src *targets.Reader, sink Sink) (Stats, error) {
	if err := r.opts.Config.Validate(); err != nil {
		return Stats{}, err
	}
	if r.opts.Filter != nil {
		if err := r.opts.Filter.Validate(); err != nil {
			return Stats{}, err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	ordered := make(chan chan result, 2*r.opts.Threads)

	var workers sync.WaitGroup
	workers.Add(r.opts.Threads)
	for i := 0; i < r.opts.Threads; i++ {
		go func() {
			defer workers.Done()
			for j := range jobs {
				spec, err := r.compute(runCtx, j.target)
				j.result <- result{target: j.target, spec: spec, err: err}
			}
		}()
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer close(ordered)
		defer close(jobs)
		for src.Next() {
			j := job{target: src.Target(), result: make(chan result, 1)}
			select {
			case ordered <- j.result:
			case <-runCtx.Done():
				return
			}
			select {
			case jobs <- j:
			case <-runCtx.Done():
				return
			}
		}
	}()

	stats, err := r.collect(runCtx, ordered, sink)
	if err == nil {
		err = ctx.Err()
	}

	cancel()
	<-readDone
	workers.Wait()

	if err != nil {
		return stats, err
	}
	if err := src.Err(); err != nil {
		return stats, fmt.Errorf("error reading targets: %w", err)
	}
	return stats, nil
}

func (r *Runner) collect(ctx context.Context, ordered <-chan chan result, sink Sink) (Stats, error) {
	var stats Stats
	logger := r.opts.Logger

	for pending := range ordered {
		var res result
		select {
		case res = <-pending:
		case <-ctx.Done():
			return stats, ctx.Err()
		}

		if res.err != nil {
			if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
				return stats, res.err
			}
			logger.Warn("skipping target",
				zap.Int("line", res.target.Line),
				zap.String("name", res.target.Name),
				zap.Error(res.err),
			)
			stats.Skipped++
			continue
		}

		if err := sink.WriteSpectrum(res.spec); err != nil {
			return stats, fmt.Errorf("failed to write spectrum %s: %w", res.spec.Name(), err)
		}

		stats.Written++
		if stats.Written%r.opts.ProgressEvery == 0 {
			logger.Info("processed targets", zap.Int("written", stats.Written), zap.Int("skipped", stats.Skipped))
		}
	}

	return stats, nil
}

// compute resolves one target and returns its filtered, validated spectrum.
func (r *Runner) compute(ctx context.Context, t *targets.Target) (*core.Spectrum, error) {
	comp, mods, err := t.Composition(r.opts.ModDB)
	if err != nil {
		return nil, err
	}

	spec, err := r.calc.ComputeDistribution(ctx, comp, r.opts.Config)
	if err != nil {
		return nil, err
	}
	spec.ID = t.Name
	spec.Sequence = t.Sequence
	spec.Modifications = mods

	if t.Charge > 0 {
		if spec, err = spec.Charged(t.Charge); err != nil {
			return nil, err
		}
	}

	if r.opts.Filter != nil {
		if err := r.opts.Filter.Apply(spec); err != nil {
			return nil, err
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
