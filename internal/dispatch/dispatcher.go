// Package dispatch runs polling cycles: one Dispatcher per source carries
// an article from fetch through scoring, dedup and delivery, and the
// Orchestrator fans dispatchers out across sources in bounded batches.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyeonkim/devfeed_bot/internal/dedup"
	"github.com/hyeonkim/devfeed_bot/internal/feed"
	"github.com/hyeonkim/devfeed_bot/internal/messenger"
	"github.com/hyeonkim/devfeed_bot/internal/score"
)

// ErrRunInFlight reports that a scheduled run was skipped because another
// run for the same source is still executing. Scheduled runs are never
// queued; manual runs wait instead.
var ErrRunInFlight = errors.New("run already in flight")

// Trigger names who started a run.
type Trigger string

const (
	// TriggerScheduled marks runs started by the scheduler or orchestrator.
	TriggerScheduled Trigger = "scheduled"
	// TriggerManual marks human-triggered runs; they must never be
	// silently dropped.
	TriggerManual Trigger = "manual"
)

const (
	defaultDeliveryDelay = time.Second
	defaultLockPoll      = 100 * time.Millisecond
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
	maxRetryDelay        = 10 * time.Second
)

// RunResult summarizes one completed run.
type RunResult struct {
	Success       bool
	ArticlesFound int
	MessagesSent  int
	Failed        int // deliveries that failed after retries
}

// RunStats accumulates counters over the lifetime of a Dispatcher. Never
// reset except by process restart.
type RunStats struct {
	TotalRuns         int
	SuccessfulRuns    int
	FailedRuns        int
	ArticlesProcessed int
	LastRun           time.Time
	LastSuccess       time.Time
}

// Deps wires the collaborators of one Dispatcher.
type Deps struct {
	Source  feed.Source
	Scorer  *score.Scorer // nil skips relevance scoring for this source
	Lenient bool
	Cache   *dedup.Cache
	Channel messenger.Channel
	Render  func(feed.Article) string

	LookbackDays int
	Clock        func() time.Time
	Log          zerolog.Logger

	// Tuning knobs; zero values pick defaults. Tests shrink them.
	DeliveryDelay time.Duration
	LockPoll      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Dispatcher runs one polling cycle for one feed source end-to-end. Each
// source has exactly one Dispatcher, which exclusively owns its cache.
type Dispatcher struct {
	source  feed.Source
	scorer  *score.Scorer
	lenient bool
	cache   *dedup.Cache
	channel messenger.Channel
	render  func(feed.Article) string

	lookbackDays  int
	clock         func() time.Time
	log           zerolog.Logger
	deliveryDelay time.Duration
	lockPoll      time.Duration
	retryAttempts int
	retryDelay    time.Duration

	running atomic.Bool

	mu    sync.Mutex
	stats RunStats
}

// New constructs a Dispatcher. Missing tuning values get defaults; a nil
// clock means time.Now and a nil renderer falls back to the article URL.
func New(deps Deps) *Dispatcher {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	render := deps.Render
	if render == nil {
		render = func(a feed.Article) string { return a.URL }
	}

	d := &Dispatcher{
		source:        deps.Source,
		scorer:        deps.Scorer,
		lenient:       deps.Lenient,
		cache:         deps.Cache,
		channel:       deps.Channel,
		render:        render,
		lookbackDays:  deps.LookbackDays,
		clock:         clock,
		log:           deps.Log,
		deliveryDelay: deps.DeliveryDelay,
		lockPoll:      deps.LockPoll,
		retryAttempts: deps.RetryAttempts,
		retryDelay:    deps.RetryDelay,
	}
	if d.deliveryDelay <= 0 {
		d.deliveryDelay = defaultDeliveryDelay
	}
	if d.lockPoll <= 0 {
		d.lockPoll = defaultLockPoll
	}
	if d.retryAttempts <= 0 {
		d.retryAttempts = defaultRetryAttempts
	}
	if d.retryDelay <= 0 {
		d.retryDelay = defaultRetryDelay
	}
	return d
}

// Name returns the source name this dispatcher serves.
func (d *Dispatcher) Name() string { return d.source.Name() }

// Stats returns a copy of the accumulated counters.
func (d *Dispatcher) Stats() RunStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// RunOnce executes one polling cycle. If a run is already in flight, a
// scheduled trigger returns ErrRunInFlight without running; a manual
// trigger waits for the lock and then proceeds. bypassDedup skips both
// the unseen filter and the seen-marking for this run only: an
// operational re-send override, distinct from the cache's own mode.
func (d *Dispatcher) RunOnce(ctx context.Context, trigger Trigger, bypassDedup bool) (RunResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		if trigger == TriggerScheduled {
			d.log.Info().Str("source", d.Name()).Msg("scheduled run skipped, another run in flight")
			return RunResult{}, ErrRunInFlight
		}
		if err := d.waitForLock(ctx); err != nil {
			return RunResult{}, err
		}
	}
	defer d.running.Store(false)

	d.log.Info().Str("source", d.Name()).Str("trigger", string(trigger)).Bool("bypass_dedup", bypassDedup).Msg("run started")

	result, err := d.run(ctx, bypassDedup)
	d.recordRun(result, err)

	if err != nil {
		d.log.Error().Err(err).Str("source", d.Name()).Msg("run failed")
		return result, err
	}
	d.log.Info().
		Str("source", d.Name()).
		Int("found", result.ArticlesFound).
		Int("sent", result.MessagesSent).
		Int("failed", result.Failed).
		Msg("run finished")
	return result, nil
}

// waitForLock polls until the in-flight run releases the guard. Manual
// runs must eventually execute, so this only gives up on context
// cancellation.
func (d *Dispatcher) waitForLock(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.lockPoll):
		}
		if d.running.CompareAndSwap(false, true) {
			return nil
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, bypassDedup bool) (RunResult, error) {
	var result RunResult

	candidates, err := d.source.FetchCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch candidates: %w", err)
	}
	result.ArticlesFound = len(candidates)

	now := d.clock()
	inWindow := feed.FilterWindow(candidates, d.lookbackDays, now)

	admitted := inWindow
	if d.scorer != nil {
		admitted = admitted[:0]
		for _, article := range inWindow {
			res := d.scorer.Score(article, d.lenient)
			if !res.Admitted() {
				d.log.Debug().
					Str("source", d.Name()).
					Str("url", article.URL).
					Str("decision", string(res.Decision)).
					Float64("score", res.Score).
					Msg("article rejected")
				continue
			}
			admitted = append(admitted, article)
		}
	}

	var unseen []feed.Article
	if bypassDedup {
		unseen = admitted
	} else {
		// Identifiers are committed per delivery below, not here: an
		// article whose delivery fails must stay unseen for the next run.
		unseen = d.cache.FilterUnseen(admitted, nil, false)
	}

	for i, article := range unseen {
		// Space out successive deliveries so the shared channel is not
		// hammered; a single-item run sends immediately.
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(d.deliveryDelay):
			}
		}

		if err := d.deliverWithRetry(ctx, d.render(article)); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			d.log.Error().Err(err).Str("source", d.Name()).Str("url", article.URL).Msg("delivery failed")
			continue
		}

		result.MessagesSent++
		if !bypassDedup {
			d.cache.MarkSeen(article.Key())
		}
	}

	result.Success = true
	return result, nil
}

// deliverWithRetry retries transient delivery failures with a growing
// delay, capped so a long outage doesn't stall the whole run.
func (d *Dispatcher) deliverWithRetry(ctx context.Context, text string) error {
	var lastErr error

	for attempt := 0; attempt < d.retryAttempts; attempt++ {
		if attempt > 0 {
			delay := d.retryDelay * time.Duration(attempt)
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := d.channel.Deliver(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err

		if !messenger.IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (d *Dispatcher) recordRun(result RunResult, err error) {
	now := d.clock()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.TotalRuns++
	d.stats.LastRun = now
	d.stats.ArticlesProcessed += result.ArticlesFound
	if err != nil {
		d.stats.FailedRuns++
		return
	}
	d.stats.SuccessfulRuns++
	d.stats.LastSuccess = now
}
