package worker

import (
	"context"
	"sync"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	api "github.com/bidready/draft-service/api/v1alpha1"
	"github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/pkg/metrics"
)

// Scheduler is the per-process claim poll loop: a single goroutine that
// periodically scans for due pending draft jobs, claims at most one through
// an atomic conditional update, and executes it to completion before the
// next iteration. Any number of processes may run a Scheduler against the
// same store; the conditional claim is the only coordination between them.
//
// Scheduler is an owned handle with an explicit Start/Stop lifecycle; there
// is no process-wide state.
type Scheduler struct {
	store    store.Store
	executor *Executor

	workerID     string
	pollInterval time.Duration
	lease        time.Duration
	batchSize    int

	logger    *zap.SugaredLogger
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

type SchedulerConfig struct {
	WorkerID     string
	PollInterval time.Duration
	Lease        time.Duration
	BatchSize    int
}

func NewScheduler(cfg SchedulerConfig, st store.Store, executor *Executor) *Scheduler {
	return &Scheduler{
		store:        st,
		executor:     executor,
		workerID:     cfg.WorkerID,
		pollInterval: cfg.PollInterval,
		lease:        cfg.Lease,
		batchSize:    cfg.BatchSize,
		logger:       zap.S().Named("scheduler").With("worker", cfg.WorkerID),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start launches the poll loop. It is a no-op after the first call.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.run(ctx)
	})
}

// Stop terminates the loop and waits for the in-flight iteration, including
// any job being executed, to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	s.logger.Infow("scheduler started", "poll_interval", s.pollInterval, "lease", s.lease, "batch_size", s.batchSize)
	defer s.logger.Info("scheduler stopped")

	ticker := jitterbug.New(s.pollInterval, &jitterbug.Norm{Stdev: 20 * time.Millisecond})
	defer ticker.Stop()

	// iterations never overlap: the next tick is consumed only after the
	// previous iteration, including its error handling, fully completes
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
		}
		s.iteration(ctx)
	}
}

func (s *Scheduler) iteration(ctx context.Context) {
	// one bad job or a transient store outage must never stop the scheduler
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("recovered from panic in poll iteration", "panic", r)
		}
	}()

	now := time.Now().UTC()
	candidates, err := s.store.DraftJob().List(ctx,
		store.NewDraftJobQueryFilter().
			ByStatus(api.DraftJobStatusPending).
			DueAt(now),
		store.NewDraftJobQueryOptions().
			WithSortOrder(store.SortByCreatedTimeDesc).
			WithLimit(s.batchSize),
	)
	if err != nil {
		s.logger.Errorw("failed to list pending draft jobs", "error", err)
		return
	}
	metrics.UpdatePendingDraftsMetric(len(candidates))

	for i := range candidates {
		candidate := &candidates[i]
		claimedAt := time.Now().UTC()

		metrics.IncreaseClaimsAttemptedMetric(s.workerID)
		claimed, err := s.store.DraftJob().Claim(ctx, candidate.ID, s.workerID, claimedAt, s.lease)
		if err != nil {
			s.logger.Errorw("failed to claim draft job", "error", err, "draft_job_id", candidate.ID)
			continue
		}
		if !claimed {
			// another worker claimed first or the lock has not expired;
			// not an error
			continue
		}
		metrics.IncreaseClaimsWonMetric(s.workerID)

		// one job per iteration keeps fairness across worker processes
		if err := s.executor.Execute(ctx, candidate.ID, claimedAt); err != nil {
			s.logger.Errorw("failed to execute draft job", "error", err, "draft_job_id", candidate.ID)
		}
		return
	}
}
