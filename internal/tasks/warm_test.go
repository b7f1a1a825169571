package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
)

// fakeLists records forced fetches and fails scripted sessions.
type fakeLists struct {
	mu     sync.Mutex
	forced []bool
	fail   map[string]error
	sizes  map[string]int
}

func (f *fakeLists) GetList(_ context.Context, sessionID string, _ models.ListKind, force bool) ([]models.ListEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced = append(f.forced, force)

	if err, ok := f.fail[sessionID]; ok {
		return nil, err
	}
	return make([]models.ListEntry, f.sizes[sessionID]), nil
}

func TestWarm(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("All Jobs Succeed", func(t *testing.T) {
		lists := &fakeLists{sizes: map[string]int{"s1": 3, "s2": 5}}
		engine := NewWarmEngine(lists, logger)

		jobs := []WarmJob{
			{SessionID: "s1", Kind: models.KindAnime},
			{SessionID: "s1", Kind: models.KindManga},
			{SessionID: "s2", Kind: models.KindAnime},
		}

		result, err := engine.Warm(context.Background(), nil, jobs, WarmOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("warm failed: %v", err)
		}

		if result.TotalJobs != 3 || result.Successful != 3 || result.Failed != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		for _, forced := range lists.forced {
			if !forced {
				t.Error("warm must force a fresh fetch")
			}
		}
	})

	t.Run("Partial Failure Collected Per Job", func(t *testing.T) {
		lists := &fakeLists{
			sizes: map[string]int{"good": 2},
			fail: map[string]error{
				"bad": fmt.Errorf("%w: status 503", shared.ErrListFetchFailed),
			},
		}
		engine := NewWarmEngine(lists, logger)

		jobs := []WarmJob{
			{SessionID: "good", Kind: models.KindAnime},
			{SessionID: "bad", Kind: models.KindAnime},
		}

		result, err := engine.Warm(context.Background(), nil, jobs, WarmOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("warm failed: %v", err)
		}

		if result.Successful != 1 || result.Failed != 1 {
			t.Errorf("expected 1 success and 1 failure, got %+v", result)
		}
		for _, res := range result.Results {
			if res.SessionID == "bad" && !errors.Is(res.Error, shared.ErrListFetchFailed) {
				t.Errorf("failed job must carry the fetch error, got %v", res.Error)
			}
		}
	})

	t.Run("Progress Updates Streamed", func(t *testing.T) {
		lists := &fakeLists{sizes: map[string]int{"s1": 1}}
		engine := NewWarmEngine(lists, logger)

		prog := make(chan ProgressUpdate, 16)
		jobs := []WarmJob{{SessionID: "s1", Kind: models.KindAnime}}

		if _, err := engine.Warm(context.Background(), prog, jobs, WarmOpts{RateLimit: 1000}); err != nil {
			t.Fatalf("warm failed: %v", err)
		}
		close(prog)

		var phases []Phase
		for update := range prog {
			phases = append(phases, update.Phase)
		}
		if len(phases) < 2 || phases[0] != WarmStart {
			t.Errorf("expected start followed by per-job updates, got %v", phases)
		}
	})

	t.Run("Cancelled Context Stops Dispatch", func(t *testing.T) {
		lists := &fakeLists{sizes: map[string]int{"s1": 1}}
		engine := NewWarmEngine(lists, logger)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		jobs := make([]WarmJob, 50)
		for i := range jobs {
			jobs[i] = WarmJob{SessionID: "s1", Kind: models.KindAnime}
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			result, err := engine.Warm(ctx, nil, jobs, WarmOpts{RateLimit: 0.5})
			if err == nil {
				t.Errorf("expected context error, got nil")
			}
			if result.Successful == len(jobs) {
				t.Error("cancelled run must not complete every job")
			}
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("warm did not return after cancellation")
		}
	})

	t.Run("Nil Fetcher", func(t *testing.T) {
		engine := NewWarmEngine(nil, logger)
		if _, err := engine.Warm(context.Background(), nil, nil, WarmOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
