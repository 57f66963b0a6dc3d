package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bidready/draft-service/internal/store/model"
)

type Photo interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) (model.PhotoList, error)
	Create(ctx context.Context, photo *model.Photo) (*model.Photo, error)
	InitialMigration(ctx context.Context) error
}

type PhotoStore struct {
	db *gorm.DB
}

// Make sure we conform to Photo interface
var _ Photo = (*PhotoStore)(nil)

func NewPhotoStore(db *gorm.DB) Photo {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Photo{})
}

func (s *PhotoStore) ListByJob(ctx context.Context, jobID uuid.UUID) (model.PhotoList, error) {
	var photos model.PhotoList
	result := s.getDB(ctx).Where("job_id = ?", jobID).Order("created_at").Find(&photos)
	if result.Error != nil {
		return nil, fmt.Errorf("listing photos: %w", result.Error)
	}
	return photos, nil
}

func (s *PhotoStore) Create(ctx context.Context, photo *model.Photo) (*model.Photo, error) {
	result := s.getDB(ctx).Create(photo)
	if result.Error != nil {
		return nil, fmt.Errorf("creating photo: %w", result.Error)
	}
	return photo, nil
}

func (s *PhotoStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
