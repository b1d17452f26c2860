// Copyright Marco Kaiser, 2025. All rights reserved.

// Package poller decides when an asynchronously-filled result set is
// final. The agent computes results incrementally and its finished flag
// alone is not trustworthy, so the poller requires repeated consistent
// observations (stabilization) before declaring the set complete.
//
// Per query the machine moves POLLING → STABLE on joint satisfaction of
// the profile's gates, POLLING → TIMED_OUT when the poll budget runs out
// (best-effort result, Complete=false), or POLLING → FAILED when
// consecutive transport errors exceed the retry bound.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaiserm99/pasa-research-fetcher/internal/pasa"
	"github.com/kaiserm99/pasa-research-fetcher/pkg/types"
)

// Profile parameterizes the stabilization policy. Standard and Complete
// are the shipped presets; thresholds are plain fields so a single code
// path serves both.
type Profile struct {
	// MinPolls is the minimum number of polls before stability may be
	// declared, regardless of how early the counts settle.
	MinPolls int

	// RequiredStable is the number of consecutive polls whose result
	// count must match the prior poll's count.
	RequiredStable int

	// MaxPolls is the poll budget. Reaching it without stability yields
	// a best-effort result with Complete=false.
	MaxPolls int

	// Interval is the wait between consecutive polls.
	Interval time.Duration

	// RequireNonZero additionally demands a non-empty result set before
	// declaring stability.
	RequireNonZero bool
}

// Standard is the default polling profile.
var Standard = Profile{
	MinPolls:       5,
	RequiredStable: 2,
	MaxPolls:       30,
	Interval:       2 * time.Second,
}

// Complete is the extended profile used when callers need the full
// result set: more polls, stricter stability, and no empty completions.
var Complete = Profile{
	MinPolls:       10,
	RequiredStable: 3,
	MaxPolls:       40,
	Interval:       2 * time.Second,
	RequireNonZero: true,
}

// defaultRetryBound is how many consecutive transport failures are
// tolerated before the poll run fails.
const defaultRetryBound = 3

// PollFunc fetches the current result snapshot for a submitted query.
type PollFunc func(ctx context.Context) (types.ResultSnapshot, error)

// Result is the outcome of a poll run that did not hard-fail.
type Result struct {
	// Snapshot is the final (or, on timeout, last-seen) snapshot.
	Snapshot types.ResultSnapshot

	// Complete is true when the stabilization gates were satisfied and
	// false when the poll budget ran out first.
	Complete bool

	// Polls is the number of polls performed, counting failed attempts.
	Polls int
}

// Poller runs the stabilization state machine. It holds no per-query
// state; each WaitUntilStable call tracks its own run.
type Poller struct {
	profile    Profile
	retryBound int
	retryable  func(error) bool
	sleep      func(ctx context.Context, d time.Duration) error
	logger     zerolog.Logger
}

// New builds a Poller for the given profile. Transport errors are
// classified via the pasa error taxonomy.
func New(profile Profile, logger zerolog.Logger) *Poller {
	return &Poller{
		profile:    profile,
		retryBound: defaultRetryBound,
		retryable:  pasa.IsTransport,
		sleep:      sleepContext,
		logger:     logger.With().Str("component", "poller").Logger(),
	}
}

// run is the per-query stabilization state. It lives only for the
// duration of one WaitUntilStable call.
type run struct {
	prevCount int
	havePrev  bool
	stable    int
	failures  int
}

// WaitUntilStable polls until the result set stabilizes, the poll budget
// is exhausted, or polling fails. Cancellation is observed at both
// suspension points (the poll call and the interval wait); no further
// poll is issued after the context is done.
func (p *Poller) WaitUntilStable(ctx context.Context, poll PollFunc) (Result, error) {
	var (
		st   run
		last types.ResultSnapshot
	)

	for polls := 1; ; polls++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		snap, err := poll(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return Result{}, ctx.Err()

		case err != nil && !p.retryable(err):
			return Result{}, err

		case err != nil:
			// A failed poll produced no comparable snapshot, so the
			// consecutive-unchanged run restarts at the next success.
			st.failures++
			st.stable = 0
			st.havePrev = false
			if st.failures > p.retryBound {
				return Result{}, fmt.Errorf("poll %d: %d consecutive transport failures: %w",
					polls, st.failures, err)
			}
			p.logger.Warn().Err(err).Int("poll", polls).
				Int("failures", st.failures).Msg("poll failed, will retry")

		default:
			st.failures = 0
			count := snap.Count()
			if st.havePrev && count == st.prevCount {
				st.stable++
			} else {
				// Covers first observations, growth, and downward
				// revisions alike. A decrease is a change, never
				// evidence of stability.
				st.stable = 0
			}
			st.prevCount = count
			st.havePrev = true
			last = snap

			p.logger.Debug().Int("poll", polls).Int("count", count).
				Int("stable", st.stable).Bool("finished", snap.Finished).
				Msg("poll snapshot")

			if p.isStable(snap, st, polls) {
				if count == 0 {
					p.logger.Warn().Int("polls", polls).
						Msg("agent finished with zero results; possible query rejection upstream")
				} else {
					p.logger.Info().Int("count", count).Int("polls", polls).
						Msg("result set stable")
				}
				return Result{Snapshot: snap, Complete: true, Polls: polls}, nil
			}
		}

		if polls >= p.profile.MaxPolls {
			p.logger.Warn().Int("polls", polls).Int("count", last.Count()).
				Msg("poll budget exhausted, returning best-effort results")
			return Result{Snapshot: last, Complete: false, Polls: polls}, nil
		}

		if err := p.sleep(ctx, p.profile.Interval); err != nil {
			return Result{}, err
		}
	}
}

// isStable evaluates the stabilization gates. All gates are ANDed: the
// agent must claim it is finished, the count must have held unchanged
// for the required consecutive polls, the minimum poll count must be
// reached, and (for profiles that require it) the set must be non-empty.
func (p *Poller) isStable(snap types.ResultSnapshot, st run, polls int) bool {
	if !snap.Finished {
		return false
	}
	if st.stable < p.profile.RequiredStable {
		return false
	}
	if polls < p.profile.MinPolls {
		return false
	}
	if p.profile.RequireNonZero && snap.Count() == 0 {
		return false
	}
	return true
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
