package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bidready/draft-service/internal/store/model"
)

// ErrorLog is the durable diagnostic log. Append is fire-and-forget: a failed
// write must never propagate into the path being diagnosed.
type ErrorLog interface {
	Append(ctx context.Context, entry *model.ErrorLogEntry)
	List(ctx context.Context, filter *ErrorLogQueryFilter, limit int) (model.ErrorLogEntryList, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Truncate(ctx context.Context, keep int) error
	InitialMigration(ctx context.Context) error
}

type ErrorLogStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Make sure we conform to ErrorLog interface
var _ ErrorLog = (*ErrorLogStore)(nil)

func NewErrorLogStore(db *gorm.DB) ErrorLog {
	return &ErrorLogStore{db: db, log: zap.S().Named("error_log")}
}

func (s *ErrorLogStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.ErrorLogEntry{})
}

func (s *ErrorLogStore) Append(ctx context.Context, entry *model.ErrorLogEntry) {
	if result := s.getDB(ctx).Create(entry); result.Error != nil {
		s.log.Errorw("failed to append error log entry", "error", result.Error, "category", entry.Category)
	}
}

// List returns the most recent limit entries, newest first.
func (s *ErrorLogStore) List(ctx context.Context, filter *ErrorLogQueryFilter, limit int) (model.ErrorLogEntryList, error) {
	var entries model.ErrorLogEntryList

	tx := s.getDB(ctx).Model(&model.ErrorLogEntry{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	if result := tx.Order("id DESC").Find(&entries); result.Error != nil {
		return nil, fmt.Errorf("listing error log entries: %w", result.Error)
	}
	return entries, nil
}

func (s *ErrorLogStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.ErrorLogEntry{}).Where("created_at >= ?", since).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("counting error log entries: %w", result.Error)
	}
	return count, nil
}

// Truncate drops everything but the most recent keep entries.
func (s *ErrorLogStore) Truncate(ctx context.Context, keep int) error {
	recent := s.getDB(ctx).Model(&model.ErrorLogEntry{}).Select("id").Order("id DESC").Limit(keep)
	result := s.getDB(ctx).Where("id NOT IN (?)", recent).Delete(&model.ErrorLogEntry{})
	if result.Error != nil {
		return fmt.Errorf("truncating error log: %w", result.Error)
	}
	return nil
}

func (s *ErrorLogStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
