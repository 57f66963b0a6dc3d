package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bidready/draft-service/internal/store/model"
)

type Template interface {
	GetByTrade(ctx context.Context, trade, jobType string) (*model.Template, error)
	Create(ctx context.Context, template *model.Template) (*model.Template, error)
	InitialMigration(ctx context.Context) error
}

type TemplateStore struct {
	db *gorm.DB
}

// Make sure we conform to Template interface
var _ Template = (*TemplateStore)(nil)

func NewTemplateStore(db *gorm.DB) Template {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Template{})
}

func (s *TemplateStore) GetByTrade(ctx context.Context, trade, jobType string) (*model.Template, error) {
	var template model.Template
	result := s.getDB(ctx).First(&template, "trade = ? AND job_type = ?", trade, jobType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying template: %w", result.Error)
	}
	return &template, nil
}

func (s *TemplateStore) Create(ctx context.Context, template *model.Template) (*model.Template, error) {
	result := s.getDB(ctx).Create(template)
	if result.Error != nil {
		return nil, fmt.Errorf("creating template: %w", result.Error)
	}
	return template, nil
}

func (s *TemplateStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
