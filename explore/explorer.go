// Package explore drives the exploration loop: build a minimal value for a
// target FQN, then repeatedly mutate it, optionally evaluating each
// candidate against the host library and advancing only through candidates
// the host accepts.
package explore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/corpus"
	"github.com/rix0rrr/cdk-reflect/custom"
	"github.com/rix0rrr/cdk-reflect/eval"
	"github.com/rix0rrr/cdk-reflect/gen"
	"github.com/rix0rrr/cdk-reflect/model"
	"github.com/rix0rrr/cdk-reflect/mutate"
	"github.com/rix0rrr/cdk-reflect/pkg/limiter"
	"github.com/rix0rrr/cdk-reflect/pkg/logging"
	"github.com/rix0rrr/cdk-reflect/pkg/metrics"
	"github.com/rix0rrr/cdk-reflect/pkg/rng"
	"github.com/rix0rrr/cdk-reflect/pkg/tracing"
	"github.com/rix0rrr/cdk-reflect/stmt"
)

// Options configures an exploration session.
type Options struct {
	Seed     uint64
	Variants int
	Rounds   int
	Evaluate bool

	// OnCandidate fires for every mutation candidate; artifact is nil when
	// evaluation is off or failed.
	OnCandidate func(v core.Value, artifact any, err error)
	// OnRound fires after each round with the number of surviving
	// candidates.
	OnRound func(round, candidates, kept int)
}

// Report summarizes a finished session.
type Report struct {
	SessionID string
	FQN       string
	Rounds    int
	Evaluated int
	Successes int
	// FailureHistogram counts rejected candidates per failure class.
	FailureHistogram map[string]int
	Final            core.Value
}

// Explorer owns the model, host and instrumentation shared by sessions.
type Explorer struct {
	model      *model.Registry
	host       eval.Host
	store      *corpus.Store
	log        *logging.Logger
	metrics    *metrics.PrometheusMetrics
	tracer     *tracing.Tracer
	protection *limiter.Protection
}

// New creates an explorer. Host and store may be nil when evaluation or
// corpus output are not wanted; a nil metrics disables metrics, and a nil
// tracer defaults to a no-op tracer.
func New(m *model.Registry, host eval.Host, store *corpus.Store, log *logging.Logger, pm *metrics.PrometheusMetrics, tracer *tracing.Tracer) *Explorer {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &Explorer{
		model:      m,
		host:       host,
		store:      store,
		log:        log,
		metrics:    pm,
		tracer:     tracer,
		protection: limiter.New(limiter.DefaultConfig("host-eval")),
	}
}

// Explore runs one session against fqn.
func (e *Explorer) Explore(ctx context.Context, fqn string, opts Options) (*Report, error) {
	if opts.Variants <= 0 {
		opts.Variants = 1
	}
	if opts.Rounds <= 0 {
		opts.Rounds = 1
	}
	sessionID := uuid.NewString()
	log := e.log.WithSession(sessionID)
	rand := rng.New(opts.Seed)
	customs := custom.NewRegistry()

	report := &Report{
		SessionID:        sessionID,
		FQN:              fqn,
		FailureHistogram: make(map[string]int),
	}

	g := gen.New(e.model, rand, gen.Options{Customs: customs, Log: log.Slog()})
	current, err := g.Minimal(fqn)
	if err != nil {
		return nil, fmt.Errorf("minimal value for %s: %w", fqn, err)
	}
	if err := e.keep(current); err != nil {
		return nil, err
	}

	for round := 1; round <= opts.Rounds; round++ {
		ctx, span := e.tracer.StartRoundSpan(ctx, fqn, round)
		kept, err := e.round(ctx, current, rand, customs, log, opts, report)
		span.End()
		if err != nil {
			return nil, err
		}
		report.Rounds = round
		if e.metrics != nil {
			e.metrics.RoundsTotal.Inc()
		}
		if len(kept) > 0 {
			current = kept[rand.Intn(len(kept))]
		}
		log.LogRound(round, opts.Variants, len(kept), core.HashValue(current))
		if opts.OnRound != nil {
			opts.OnRound(round, opts.Variants, len(kept))
		}
	}
	report.Final = current
	return report, nil
}

// round mutates current once and returns the candidates the session may
// advance to. With evaluation on, a failing candidate never becomes the
// current value.
func (e *Explorer) round(ctx context.Context, current core.Value, rand *rng.Rand, customs *custom.Registry, log *logging.Logger, opts Options, report *Report) ([]core.Value, error) {
	mut := mutate.New(e.model, rand, mutate.Options{
		Variants: opts.Variants,
		Customs:  customs,
		Log:      log.Slog(),
	})
	candidates, err := mut.Mutate(current)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.VariantsTotal.Add(float64(len(candidates)))
	}

	if !opts.Evaluate {
		for _, c := range candidates {
			if opts.OnCandidate != nil {
				opts.OnCandidate(c, nil, nil)
			}
			if err := e.keep(c); err != nil {
				return nil, err
			}
		}
		return candidates, nil
	}

	var kept []core.Value
	for _, c := range candidates {
		artifact, err := e.evaluate(ctx, c)
		report.Evaluated++
		if opts.OnCandidate != nil {
			opts.OnCandidate(c, artifact, err)
		}
		if err != nil {
			class := failureClass(err)
			report.FailureHistogram[class]++
			log.LogEvalFailure(core.HashValue(c), class, err)
			continue
		}
		report.Successes++
		if err := e.keep(c); err != nil {
			return nil, err
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// evaluate discretizes a candidate and runs it against the host under the
// protection manager. Every candidate gets a fresh evaluator: variable
// bindings must not leak across programs.
func (e *Explorer) evaluate(ctx context.Context, v core.Value) (any, error) {
	if e.host == nil {
		return nil, fmt.Errorf("no host configured for evaluation")
	}
	ctx, span := e.tracer.StartEvalSpan(ctx, core.HashValue(v))
	defer span.End()

	statements := stmt.Discretize(v)
	start := time.Now()
	artifact, err := e.protection.Execute(ctx, func() (any, error) {
		return eval.New(e.host).Run(ctx, statements)
	})
	if e.metrics != nil {
		e.metrics.ObserveEval(failureClass(err), time.Since(start), err == nil)
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return artifact, nil
}

func (e *Explorer) keep(v core.Value) error {
	if e.store == nil {
		return nil
	}
	if _, _, err := e.store.Put(v); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.CorpusWrites.Inc()
	}
	return nil
}

func failureClass(err error) string {
	var evalErr *core.EvalError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrModelNotFound):
		return "model-not-found"
	case errors.Is(err, core.ErrNoSources):
		return "no-sources"
	case errors.Is(err, core.ErrNoValueAtEval):
		return "no-value"
	case errors.As(err, &evalErr):
		return "host-rejected"
	default:
		return "internal"
	}
}
