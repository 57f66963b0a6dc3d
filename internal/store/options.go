package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	api "github.com/bidready/draft-service/api/v1alpha1"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByCreatedTime
	SortByCreatedTimeDesc
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type DraftJobQueryFilter BaseQuerier

func NewDraftJobQueryFilter() *DraftJobQueryFilter {
	return &DraftJobQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *DraftJobQueryFilter) ByStatus(status api.DraftJobStatus) *DraftJobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", string(status))
	})
	return qf
}

func (qf *DraftJobQueryFilter) ByJobID(jobID uuid.UUID) *DraftJobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("job_id = ?", jobID)
	})
	return qf
}

// DueAt keeps records whose next attempt is unset or due at the given time.
func (qf *DraftJobQueryFilter) DueAt(now time.Time) *DraftJobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now)
	})
	return qf
}

type DraftJobQueryOptions BaseQuerier

func NewDraftJobQueryOptions() *DraftJobQueryOptions {
	return &DraftJobQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *DraftJobQueryOptions) WithSortOrder(sort SortOrder) *DraftJobQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByCreatedTime:
			return tx.Order("created_at")
		case SortByCreatedTimeDesc:
			// deterministic tie-break favoring the newest work
			return tx.Order("created_at DESC, id DESC")
		default:
			return tx
		}
	})
	return o
}

func (o *DraftJobQueryOptions) WithLimit(limit int) *DraftJobQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

type ErrorLogQueryFilter BaseQuerier

func NewErrorLogQueryFilter() *ErrorLogQueryFilter {
	return &ErrorLogQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ErrorLogQueryFilter) ByCategory(category string) *ErrorLogQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("category = ?", category)
	})
	return qf
}
