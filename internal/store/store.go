package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	DraftJob() DraftJob
	Job() Job
	User() User
	Template() Template
	Photo() Photo
	ErrorLog() ErrorLog
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db       *gorm.DB
	draftJob DraftJob
	job      Job
	user     User
	template Template
	photo    Photo
	errorLog ErrorLog
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:       db,
		draftJob: NewDraftJobStore(db),
		job:      NewJobStore(db),
		user:     NewUserStore(db),
		template: NewTemplateStore(db),
		photo:    NewPhotoStore(db),
		errorLog: NewErrorLogStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) DraftJob() DraftJob {
	return s.draftJob
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) User() User {
	return s.user
}

func (s *DataStore) Template() Template {
	return s.template
}

func (s *DataStore) Photo() Photo {
	return s.photo
}

func (s *DataStore) ErrorLog() ErrorLog {
	return s.errorLog
}

func (s *DataStore) InitialMigration() error {
	ctx := context.Background()
	for _, migrate := range []func(context.Context) error{
		s.job.InitialMigration,
		s.user.InitialMigration,
		s.template.InitialMigration,
		s.photo.InitialMigration,
		s.draftJob.InitialMigration,
		s.errorLog.InitialMigration,
	} {
		if err := migrate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
