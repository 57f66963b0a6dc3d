package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	api "github.com/bidready/draft-service/api/v1alpha1"
	"github.com/bidready/draft-service/internal/store/model"
)

// DraftJob exposes the draft-job table. Claim and the terminal writes are the
// only mutation paths once a record exists; both are conditional updates so
// that any number of worker processes can share one store safely.
type DraftJob interface {
	Create(ctx context.Context, job *model.DraftJob) (*model.DraftJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.DraftJob, error)
	GetActiveByIdempotencyKey(ctx context.Context, jobID uuid.UUID, key string) (*model.DraftJob, error)
	List(ctx context.Context, filter *DraftJobQueryFilter, opts *DraftJobQueryOptions) (model.DraftJobList, error)
	Claim(ctx context.Context, id uuid.UUID, workerID string, now time.Time, lease time.Duration) (bool, error)
	MarkReady(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, draft api.Draft, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, errText string, finishedAt time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, nextAttemptAt time.Time, errText string) error
	InitialMigration(ctx context.Context) error
}

type DraftJobStore struct {
	db *gorm.DB
}

// Make sure we conform to DraftJob interface
var _ DraftJob = (*DraftJobStore)(nil)

func NewDraftJobStore(db *gorm.DB) DraftJob {
	return &DraftJobStore{db: db}
}

func (s *DraftJobStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.DraftJob{})
}

func (s *DraftJobStore) Create(ctx context.Context, job *model.DraftJob) (*model.DraftJob, error) {
	result := s.getDB(ctx).Create(job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating draft job: %w", result.Error)
	}
	return job, nil
}

func (s *DraftJobStore) Get(ctx context.Context, id uuid.UUID) (*model.DraftJob, error) {
	var job model.DraftJob
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying draft job: %w", result.Error)
	}
	return &job, nil
}

// GetActiveByIdempotencyKey returns the newest non-failed record for the
// (jobID, key) pair. Failed records do not count: a re-enqueue after terminal
// failure starts a fresh draft.
func (s *DraftJobStore) GetActiveByIdempotencyKey(ctx context.Context, jobID uuid.UUID, key string) (*model.DraftJob, error) {
	var job model.DraftJob
	result := s.getDB(ctx).
		Where("job_id = ? AND idempotency_key = ? AND status != ?", jobID, key, string(api.DraftJobStatusFailed)).
		Order("created_at DESC").
		First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying draft job by idempotency key: %w", result.Error)
	}
	return &job, nil
}

func (s *DraftJobStore) List(ctx context.Context, filter *DraftJobQueryFilter, opts *DraftJobQueryOptions) (model.DraftJobList, error) {
	var jobs model.DraftJobList

	tx := s.getDB(ctx).Model(&model.DraftJob{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Find(&jobs); result.Error != nil {
		return nil, fmt.Errorf("listing draft jobs: %w", result.Error)
	}
	return jobs, nil
}

// Claim is the sole mutual-exclusion mechanism: one atomic conditional update
// that moves the record into processing and takes the lock. Zero rows
// affected means another worker claimed first, the lock has not expired, or
// the record reached a terminal state. Ready and failed records never
// transition again; processing stays claimable so an expired lease can be
// taken over. Attempts increments here and nowhere else.
func (s *DraftJobStore) Claim(ctx context.Context, id uuid.UUID, workerID string, now time.Time, lease time.Duration) (bool, error) {
	claimable := []string{string(api.DraftJobStatusPending), string(api.DraftJobStatusProcessing)}
	result := s.getDB(ctx).Model(&model.DraftJob{}).
		Where("id = ? AND status IN ? AND (locked_at IS NULL OR locked_at <= ?)", id, claimable, now.Add(-lease)).
		Updates(map[string]any{
			"status":     string(api.DraftJobStatusProcessing),
			"locked_by":  workerID,
			"locked_at":  now,
			"started_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("claiming draft job: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// MarkReady writes the terminal ready outcome. The update is conditional on
// still holding the claim taken at lockedAt; a zero-row result means the
// lease expired and another worker took over, and the result must be
// discarded.
func (s *DraftJobStore) MarkReady(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, draft api.Draft, finishedAt time.Time) error {
	result := s.lockedUpdate(ctx, id, workerID, lockedAt, map[string]any{
		"status":          string(api.DraftJobStatusReady),
		"payload":         model.MakeJSONField(draft),
		"error":           nil,
		"finished_at":     finishedAt,
		"next_attempt_at": nil,
		"locked_by":       nil,
		"locked_at":       nil,
	})
	if result.Error != nil {
		return fmt.Errorf("marking draft job ready: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClaimSuperseded
	}
	return nil
}

// MarkFailed writes the terminal failed outcome after attempts are exhausted.
func (s *DraftJobStore) MarkFailed(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, errText string, finishedAt time.Time) error {
	result := s.lockedUpdate(ctx, id, workerID, lockedAt, map[string]any{
		"status":          string(api.DraftJobStatusFailed),
		"error":           errText,
		"finished_at":     finishedAt,
		"next_attempt_at": nil,
		"locked_by":       nil,
		"locked_at":       nil,
	})
	if result.Error != nil {
		return fmt.Errorf("marking draft job failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClaimSuperseded
	}
	return nil
}

// Reschedule returns the record to pending with a backoff deadline, keeping
// the error text for inspection.
func (s *DraftJobStore) Reschedule(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, nextAttemptAt time.Time, errText string) error {
	result := s.lockedUpdate(ctx, id, workerID, lockedAt, map[string]any{
		"status":          string(api.DraftJobStatusPending),
		"error":           errText,
		"next_attempt_at": nextAttemptAt,
		"locked_by":       nil,
		"locked_at":       nil,
	})
	if result.Error != nil {
		return fmt.Errorf("rescheduling draft job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClaimSuperseded
	}
	return nil
}

func (s *DraftJobStore) lockedUpdate(ctx context.Context, id uuid.UUID, workerID string, lockedAt time.Time, values map[string]any) *gorm.DB {
	return s.getDB(ctx).Model(&model.DraftJob{}).
		Where("id = ? AND locked_by = ? AND locked_at = ?", id, workerID, lockedAt).
		Updates(values)
}

func (s *DraftJobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
