package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/bidready/draft-service/api/v1alpha1"
	"github.com/bidready/draft-service/internal/events"
	"github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/internal/store/model"
)

// DraftService is the enqueue API for draft-generation jobs.
type DraftService struct {
	store    store.Store
	producer *events.EventProducer
	logger   *zap.SugaredLogger
}

func NewDraftService(store store.Store, producer *events.EventProducer) *DraftService {
	return &DraftService{
		store:    store,
		producer: producer,
		logger:   zap.S().Named("draft_service"),
	}
}

// Enqueue creates a pending draft job for the given parent job, or returns
// the existing active record unchanged when the idempotency key matches one.
// A key only collides with non-failed records: after a terminal failure the
// same key starts a fresh draft.
func (ds *DraftService) Enqueue(ctx context.Context, jobID uuid.UUID, idempotencyKey *string, draftCtx *api.DraftContext) (*model.DraftJob, error) {
	ctx, err := ds.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening transaction: %w", err)
	}

	if idempotencyKey != nil && *idempotencyKey != "" {
		existing, err := ds.store.DraftJob().GetActiveByIdempotencyKey(ctx, jobID, *idempotencyKey)
		if err == nil {
			_, _ = store.Rollback(ctx)
			ds.logger.Debugw("enqueue matched active draft job", "draft_job_id", existing.ID, "job_id", jobID)
			return existing, nil
		}
		if !errors.Is(err, store.ErrRecordNotFound) {
			_, _ = store.Rollback(ctx)
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
	}

	created, err := ds.store.DraftJob().Create(ctx, model.NewDraftJob(jobID, idempotencyKey, draftCtx))
	if err != nil {
		ctx, _ = store.Rollback(ctx)
		// a concurrent enqueue can win the insert between the key check and
		// the create; the unique index on active (job_id, idempotency_key)
		// turns that into a duplicate-key error and their record is the one
		// to return
		if errors.Is(err, store.ErrDuplicateKey) && idempotencyKey != nil && *idempotencyKey != "" {
			return ds.store.DraftJob().GetActiveByIdempotencyKey(ctx, jobID, *idempotencyKey)
		}
		return nil, err
	}

	// the parent job's coarse label communicates "still drafting" until the
	// draft reaches ready
	if err := ds.store.Job().UpdateStatus(ctx, jobID, api.JobStatusDrafting); err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if ctx, err = store.Commit(ctx); err != nil {
		return nil, err
	}

	ds.emitDraftEvent(ctx, events.DraftEnqueuedKind, created)
	ds.logger.Infow("draft job enqueued", "draft_job_id", created.ID, "job_id", jobID)
	return created, nil
}

func (ds *DraftService) Get(ctx context.Context, id uuid.UUID) (*model.DraftJob, error) {
	draft, err := ds.store.DraftJob().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDraftJobNotFound(id)
		}
		return nil, fmt.Errorf("getting draft job: %w", err)
	}
	return draft, nil
}

func (ds *DraftService) ListForJob(ctx context.Context, jobID uuid.UUID) (model.DraftJobList, error) {
	return ds.store.DraftJob().List(ctx,
		store.NewDraftJobQueryFilter().ByJobID(jobID),
		store.NewDraftJobQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc),
	)
}

func (ds *DraftService) emitDraftEvent(ctx context.Context, kind string, draft *model.DraftJob) {
	if ds.producer == nil {
		return
	}
	body, err := json.Marshal(events.DraftEvent{
		DraftJobID: draft.ID.String(),
		JobID:      draft.JobID.String(),
		Status:     draft.Status,
		Attempts:   draft.Attempts,
	})
	if err != nil {
		return
	}
	if err := ds.producer.Write(ctx, kind, bytes.NewReader(body)); err != nil {
		ds.logger.Warnw("failed to write draft event", "error", err, "kind", kind)
	}
}
