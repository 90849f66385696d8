package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultCooldown      = 2 * time.Second
	defaultSourceTimeout = 90 * time.Second
)

// SourceResult is the per-source line of a BatchResult.
type SourceResult struct {
	Source        string
	Success       bool
	ArticlesFound int
	MessagesSent  int
	Failed        int
	Duration      time.Duration
	Err           error
}

// BatchResult aggregates one orchestrator invocation. It is always
// produced, even when every source failed.
type BatchResult struct {
	TotalSources  int
	Succeeded     int
	Failed        int
	ArticlesFound int
	MessagesSent  int
	Results       []SourceResult
}

// Orchestrator fans RunOnce out across many dispatchers in sequential
// batches of bounded size, so one broken or slow feed never blocks the
// others and the shared delivery channel sees smoothed load.
type Orchestrator struct {
	dispatchers []*Dispatcher
	batchSize   int
	timeout     time.Duration // per source
	cooldown    time.Duration // between batches
	log         zerolog.Logger
}

// NewOrchestrator builds an orchestrator over the given dispatchers.
// batchSize below 1 becomes 1; a non-positive timeout gets a default, since
// a zero timeout would fire before any source had a chance to run.
func NewOrchestrator(dispatchers []*Dispatcher, batchSize int, timeout time.Duration, log zerolog.Logger) *Orchestrator {
	if batchSize < 1 {
		batchSize = 1
	}
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &Orchestrator{
		dispatchers: dispatchers,
		batchSize:   batchSize,
		timeout:     timeout,
		cooldown:    defaultCooldown,
		log:         log,
	}
}

// SetCooldown overrides the inter-batch pause. Tests shrink it.
func (o *Orchestrator) SetCooldown(d time.Duration) { o.cooldown = d }

// RunAll executes every dispatcher once and aggregates the outcome. It
// never fails as a whole: per-source failures, including timeouts, are
// enumerated in the result detail list.
func (o *Orchestrator) RunAll(ctx context.Context, bypassDedup bool) BatchResult {
	result := BatchResult{
		TotalSources: len(o.dispatchers),
		Results:      make([]SourceResult, 0, len(o.dispatchers)),
	}

	for start := 0; start < len(o.dispatchers); start += o.batchSize {
		end := start + o.batchSize
		if end > len(o.dispatchers) {
			end = len(o.dispatchers)
		}
		batch := o.dispatchers[start:end]

		if start > 0 && o.cooldown > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cooldown):
			}
		}

		batchResults := make([]SourceResult, len(batch))
		var wg sync.WaitGroup
		for i, d := range batch {
			wg.Add(1)
			go func(i int, d *Dispatcher) {
				defer wg.Done()
				batchResults[i] = o.runWithTimeout(ctx, d, bypassDedup)
			}(i, d)
		}
		wg.Wait()

		result.Results = append(result.Results, batchResults...)
	}

	for _, sr := range result.Results {
		if sr.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.ArticlesFound += sr.ArticlesFound
		result.MessagesSent += sr.MessagesSent
	}

	o.report(result)
	return result
}

// runWithTimeout wraps one dispatcher run with an independent deadline.
// Timing out is an ordinary failure: the orchestrator stops waiting and
// moves on without cancelling the underlying call, which may still finish
// on its own with no further effect on the batch.
func (o *Orchestrator) runWithTimeout(ctx context.Context, d *Dispatcher, bypassDedup bool) SourceResult {
	start := time.Now()
	done := make(chan SourceResult, 1)

	go func() {
		res, err := d.RunOnce(ctx, TriggerScheduled, bypassDedup)
		done <- SourceResult{
			Source:        d.Name(),
			Success:       err == nil,
			ArticlesFound: res.ArticlesFound,
			MessagesSent:  res.MessagesSent,
			Failed:        res.Failed,
			Err:           err,
		}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case sr := <-done:
		sr.Duration = time.Since(start)
		return sr
	case <-timer.C:
		return SourceResult{
			Source:   d.Name(),
			Duration: time.Since(start),
			Err:      fmt.Errorf("timed out after %s", o.timeout),
		}
	case <-ctx.Done():
		return SourceResult{
			Source:   d.Name(),
			Duration: time.Since(start),
			Err:      ctx.Err(),
		}
	}
}

// report emits the run summary. Failures are named per source; they are
// never swallowed silently.
func (o *Orchestrator) report(result BatchResult) {
	summary := o.log.Info().
		Int("sources", result.TotalSources).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("articles_found", result.ArticlesFound).
		Int("messages_sent", result.MessagesSent)

	for _, sr := range result.Results {
		if sr.Err != nil {
			o.log.Warn().Str("source", sr.Source).Dur("duration", sr.Duration).Err(sr.Err).Msg("source failed")
		}
	}
	summary.Msg("batch complete")
}
