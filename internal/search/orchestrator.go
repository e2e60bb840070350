package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/rs/zerolog/log"
)

// ExhaustedError is returned when the last step of the chain failed.
type ExhaustedError struct {
	Attempts []string
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("search exhausted after %s: %v", strings.Join(e.Attempts, ", "), e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

var errNoStrategy = errors.New("no strategy applied to the query")

// Result is what a search settles to. Listings may be empty; that is a valid result.
type Result struct {
	Listings []models.Listing
	Center   models.MapCenter
	Strategy string
	Attempts []string
}

// Empty reports whether the search settled without data.
func (r *Result) Empty() bool {
	return len(r.Listings) == 0
}

// Orchestrator walks the strategy chain one step at a time.
type Orchestrator struct {
	fetcher    Fetcher
	strategies []Strategy
}

func NewOrchestrator(fetcher Fetcher, strategies ...Strategy) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, strategies: strategies}
}

// Run executes the chain. Each step starts only after the previous one has settled.
// It returns the first non-empty result, or the last step's result when it is empty,
// or an *ExhaustedError when the last step failed.
func (o *Orchestrator) Run(ctx context.Context, q Query) (*Result, error) {
	var (
		prev     *Outcome
		last     Strategy
		attempts []string
	)

	for _, s := range o.strategies {
		step := s.Plan(q, prev)
		if step.Final != nil {
			if last == nil {
				last = s
			}
			return o.finish(q, last, step.Final, attempts), nil
		}
		if step.Next == nil {
			log.Debug().Str("strategy", s.Name()).Msg("Strategy skipped")
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := *step.Next
		listings, err := o.fetcher.Fetch(ctx, req)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		attempts = append(attempts, s.Name())
		prev = &Outcome{Strategy: s.Name(), Request: req, Listings: listings, Err: err}
		last = s
		recordStep(prev)

		if err != nil {
			log.Warn().Err(err).Str("strategy", s.Name()).Str("key", req.Key()).Msg("Search step failed, falling back")
		} else if len(listings) == 0 {
			log.Debug().Str("strategy", s.Name()).Str("key", req.Key()).Msg("Search step empty, falling back")
		}
	}

	if prev == nil {
		return nil, &ExhaustedError{Err: errNoStrategy}
	}
	if prev.Err != nil {
		return nil, &ExhaustedError{Attempts: attempts, Err: prev.Err}
	}
	return o.finish(q, last, prev, attempts), nil
}

func (o *Orchestrator) finish(q Query, s Strategy, out *Outcome, attempts []string) *Result {
	result := &Result{
		Listings: Arrange(out.Listings, q.Origin),
		Center:   s.Center(q, out.Request),
		Strategy: out.Strategy,
		Attempts: attempts,
	}

	log.Info().
		Str("strategy", result.Strategy).
		Strs("attempts", attempts).
		Int("count", len(result.Listings)).
		Msg("Search settled")

	return result
}

func recordStep(out *Outcome) {
	outcome := "results"
	switch {
	case out.Err != nil:
		outcome = "error"
	case len(out.Listings) == 0:
		outcome = "empty"
	}
	telemetry.SearchSteps.WithLabelValues(out.Strategy, outcome).Inc()
}
