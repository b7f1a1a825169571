package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
	"golang.org/x/time/rate"
)

// ListGetter retrieves a session's list, bypassing the cache when force is set.
type ListGetter interface {
	GetList(ctx context.Context, sessionID string, kind models.ListKind, force bool) ([]models.ListEntry, error)
}

// WarmJob names one (session, kind) pair to refresh.
type WarmJob struct {
	SessionID string
	Kind      models.ListKind
}

// WarmJobResult reports the outcome of a single warm job.
type WarmJobResult struct {
	SessionID string
	Kind      models.ListKind
	Entries   int
	Success   bool
	Error     error
}

// WarmResult summarizes a full warm run.
type WarmResult struct {
	TotalJobs  int
	Successful int
	Failed     int
	Results    []WarmJobResult
}

// WarmOpts contains configuration for a warm run.
type WarmOpts struct {
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Job dispatches per second (default: 1)
}

// WarmEngine refreshes cached lists in bulk.
type WarmEngine struct {
	lists  ListGetter
	logger *log.Logger
}

// NewWarmEngine creates a [WarmEngine] backed by the given list getter.
func NewWarmEngine(lists ListGetter, logger *log.Logger) *WarmEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &WarmEngine{lists: lists, logger: logger}
}

// sendProgress delivers an update without blocking when no listener is attached.
func (e *WarmEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

// Warm refreshes every job's list concurrently with rate limiting and
// progress tracking.
//
// Jobs are dispatched to a bounded worker pool; each forces a fresh fetch so
// the committed cache reflects the provider's current state. Failures are
// collected per job rather than aborting the run.
func (e *WarmEngine) Warm(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	jobs []WarmJob,
	opts WarmOpts,
) (*WarmResult, error) {
	if e.lists == nil {
		return nil, fmt.Errorf("%w: list fetcher not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	result := &WarmResult{
		TotalJobs: len(jobs),
		Results:   make([]WarmJobResult, 0, len(jobs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	queue := make(chan WarmJob, len(jobs))
	results := make(chan WarmJobResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.warmWorker(ctx, &wg, queue, results)
	}

	go func() {
		e.sendProgress(prog, warmStartUpdate(len(jobs)))
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				close(queue)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(queue)
				return
			}

			queue <- job
		}
		close(queue)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(prog, warmCompletedUpdate(completed, len(jobs), res.SessionID, res.Kind, res.Entries))
		} else {
			result.Failed++
			e.sendProgress(prog, warmFailedUpdate(completed, len(jobs), res.SessionID, res.Kind, res.Error))
		}
	}

	return result, ctx.Err()
}

// warmWorker drains the queue, forcing a fresh fetch per job.
func (e *WarmEngine) warmWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	queue <-chan WarmJob,
	results chan<- WarmJobResult,
) {
	defer wg.Done()

	for job := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := WarmJobResult{SessionID: job.SessionID, Kind: job.Kind}
		entries, err := e.lists.GetList(ctx, job.SessionID, job.Kind, true)
		if err != nil {
			res.Error = fmt.Errorf("warm failed: %w", err)
			e.logger.Warn("warm job failed", "session", job.SessionID, "kind", job.Kind, "error", err)
		} else {
			res.Entries = len(entries)
			res.Success = true
		}

		results <- res
	}
}
