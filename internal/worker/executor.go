package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/bidready/draft-service/api/v1alpha1"
	"github.com/bidready/draft-service/internal/events"
	"github.com/bidready/draft-service/internal/generator"
	"github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/internal/store/model"
	"github.com/bidready/draft-service/pkg/metrics"
)

const (
	categoryContextResolution = "context_resolution"
	categoryDraftGeneration   = "draft_generation"
)

// Executor drives one freshly claimed draft job through generation, success,
// or backoff/failure. All terminal and retry writes are conditioned on still
// holding the claim; a superseded claim means the result is discarded.
type Executor struct {
	store            store.Store
	generator        generator.Generator
	producer         *events.EventProducer
	workerID         string
	maxAttempts      int
	marketMultiplier float64
	logger           *zap.SugaredLogger
}

func NewExecutor(st store.Store, gen generator.Generator, producer *events.EventProducer, workerID string, maxAttempts int, marketMultiplier float64) *Executor {
	return &Executor{
		store:            st,
		generator:        gen,
		producer:         producer,
		workerID:         workerID,
		maxAttempts:      maxAttempts,
		marketMultiplier: marketMultiplier,
		logger:           zap.S().Named("executor"),
	}
}

// Execute runs the retry state machine for the job claimed at claimedAt.
// The record is re-read so the post-claim attempt count is authoritative.
func (e *Executor) Execute(ctx context.Context, id uuid.UUID, claimedAt time.Time) error {
	draft, err := e.store.DraftJob().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("reading claimed draft job: %w", err)
	}

	result, genErr := e.generate(ctx, draft)
	if genErr != nil {
		e.handleFailure(ctx, draft, claimedAt, genErr)
		return nil
	}

	if err := e.store.DraftJob().MarkReady(ctx, draft.ID, e.workerID, claimedAt, *result, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrClaimSuperseded) {
			e.logger.Warnw("ready write superseded, discarding result", "draft_job_id", draft.ID)
			return nil
		}
		e.handleFailure(ctx, draft, claimedAt, fmt.Errorf("writing ready outcome: %w", err))
		return nil
	}

	if err := e.store.Job().UpdateStatus(ctx, draft.JobID, api.JobStatusDrafted); err != nil {
		e.logger.Warnw("failed to update parent job status", "error", err, "job_id", draft.JobID)
	}

	metrics.IncreaseDraftsReadyMetric(e.workerID)
	e.emitDraftEvent(ctx, events.DraftReadyKind, draft, api.DraftJobStatusReady, "")
	e.logger.Infow("draft job ready", "draft_job_id", draft.ID, "job_id", draft.JobID, "attempts", draft.Attempts)
	return nil
}

// generate resolves the required context and invokes the generator. A missing
// reference is an ordinary retryable failure like any other.
func (e *Executor) generate(ctx context.Context, draft *model.DraftJob) (*api.Draft, error) {
	job, err := e.store.Job().Get(ctx, draft.JobID)
	if err != nil {
		return nil, fmt.Errorf("resolving parent job %s: %w", draft.JobID, err)
	}
	user, err := e.store.User().Get(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", job.UserID, err)
	}
	template, err := e.store.Template().GetByTrade(ctx, job.Trade, job.JobType)
	if err != nil {
		return nil, fmt.Errorf("resolving template for %s/%s: %w", job.Trade, job.JobType, err)
	}
	// photos are optional enrichment: absence or unfinished analysis never
	// blocks generation
	photos, err := e.store.Photo().ListByJob(ctx, draft.JobID)
	if err != nil {
		photos = nil
	}

	in := generator.Input{
		Job: api.JobDescriptor{
			Trade:   job.Trade,
			JobType: job.JobType,
			Size:    api.StringToJobSize(job.Size),
			Notes:   job.Notes,
		},
		Template:         templateSpec(template),
		User:             userFactors(user),
		Photos:           photoDescriptors(photos),
		MarketMultiplier: e.marketMultiplier,
	}
	if draft.Context != nil {
		c := draft.Context.Data
		in.Context = &c
	}

	result, err := e.generator.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("generating draft: %w", err)
	}
	return result, nil
}

// handleFailure appends to the error log before any store write so the
// diagnostic survives even when the write itself fails, then either marks the
// job failed or reschedules it with backoff.
func (e *Executor) handleFailure(ctx context.Context, draft *model.DraftJob, claimedAt time.Time, cause error) {
	attempts := draft.Attempts

	e.store.ErrorLog().Append(ctx, &model.ErrorLogEntry{
		Category:   failureCategory(cause),
		Message:    cause.Error(),
		JobID:      &draft.JobID,
		DraftJobID: &draft.ID,
		Attempt:    attempts,
	})

	if attempts >= e.maxAttempts {
		err := e.store.DraftJob().MarkFailed(ctx, draft.ID, e.workerID, claimedAt, cause.Error(), time.Now().UTC())
		switch {
		case errors.Is(err, store.ErrClaimSuperseded):
			e.logger.Warnw("failed write superseded, discarding", "draft_job_id", draft.ID)
		case err != nil:
			e.logger.Errorw("failed to mark draft job failed", "error", err, "draft_job_id", draft.ID)
		default:
			metrics.IncreaseDraftsFailedMetric(e.workerID)
			e.emitDraftEvent(ctx, events.DraftFailedKind, draft, api.DraftJobStatusFailed, cause.Error())
			e.logger.Errorw("draft job failed terminally", "draft_job_id", draft.ID, "attempts", attempts, "error", cause)
		}
		return
	}

	nextAttemptAt := time.Now().UTC().Add(Backoff(attempts))
	err := e.store.DraftJob().Reschedule(ctx, draft.ID, e.workerID, claimedAt, nextAttemptAt, cause.Error())
	switch {
	case errors.Is(err, store.ErrClaimSuperseded):
		e.logger.Warnw("reschedule superseded, discarding", "draft_job_id", draft.ID)
	case err != nil:
		e.logger.Errorw("failed to reschedule draft job", "error", err, "draft_job_id", draft.ID)
	default:
		metrics.IncreaseDraftRetriesMetric(e.workerID)
		e.logger.Infow("draft job rescheduled", "draft_job_id", draft.ID, "attempts", attempts, "next_attempt_at", nextAttemptAt, "error", cause)
	}
}

func (e *Executor) emitDraftEvent(ctx context.Context, kind string, draft *model.DraftJob, status api.DraftJobStatus, errText string) {
	if e.producer == nil {
		return
	}
	body, err := json.Marshal(events.DraftEvent{
		DraftJobID: draft.ID.String(),
		JobID:      draft.JobID.String(),
		Status:     string(status),
		Attempts:   draft.Attempts,
		Error:      errText,
	})
	if err != nil {
		return
	}
	if err := e.producer.Write(ctx, kind, bytes.NewReader(body)); err != nil {
		e.logger.Warnw("failed to write draft event", "error", err, "kind", kind)
	}
}

func failureCategory(err error) string {
	if errors.Is(err, store.ErrRecordNotFound) {
		return categoryContextResolution
	}
	return categoryDraftGeneration
}

func templateSpec(t *model.Template) api.Template {
	spec := api.Template{
		Trade:            t.Trade,
		JobType:          t.JobType,
		BasePrice:        api.PriceRange{Low: t.PriceLow, High: t.PriceHigh},
		BaselineDuration: api.DurationRange{LowDays: t.DurationDaysLow, HighDays: t.DurationDaysHigh},
		Warranty:         t.Warranty,
		Exclusions:       t.Exclusions,
	}
	if t.ScopeItems != nil {
		spec.ScopeItems = t.ScopeItems.Data
	}
	return spec
}

func userFactors(u *model.User) api.UserFactors {
	factors := api.UserFactors{PriceMultiplier: u.PriceMultiplier}
	if u.TradeMultipliers != nil {
		factors.TradeMultipliers = u.TradeMultipliers.Data
	}
	return factors
}

func photoDescriptors(photos model.PhotoList) []api.PhotoDescriptor {
	if len(photos) == 0 {
		return nil
	}
	descriptors := make([]api.PhotoDescriptor, 0, len(photos))
	for _, p := range photos {
		d := api.PhotoDescriptor{URL: p.URL, Kind: p.Kind}
		if p.Findings != nil {
			d.Findings = p.Findings.Data
		}
		descriptors = append(descriptors, d)
	}
	return descriptors
}
