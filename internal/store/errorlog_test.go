package store_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/bidready/draft-service/internal/config"
	st "github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/internal/store/model"
)

var _ = Describe("error log store", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM error_log_entries;")
	})

	Context("append and list", func() {
		It("returns the most recent entries newest first", func() {
			draftID := uuid.New()
			for i := 1; i <= 5; i++ {
				s.ErrorLog().Append(context.TODO(), &model.ErrorLogEntry{
					Category:   "draft_generation",
					Message:    fmt.Sprintf("failure %d", i),
					DraftJobID: &draftID,
					Attempt:    i,
				})
			}

			entries, err := s.ErrorLog().List(context.TODO(), nil, 3)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Message).To(Equal("failure 5"))
			Expect(entries[2].Message).To(Equal("failure 3"))
		})

		It("filters by category", func() {
			s.ErrorLog().Append(context.TODO(), &model.ErrorLogEntry{Category: "draft_generation", Message: "a"})
			s.ErrorLog().Append(context.TODO(), &model.ErrorLogEntry{Category: "context_resolution", Message: "b"})

			entries, err := s.ErrorLog().List(context.TODO(), st.NewErrorLogQueryFilter().ByCategory("context_resolution"), 10)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Message).To(Equal("b"))
		})
	})

	Context("count", func() {
		It("counts entries since a timestamp", func() {
			s.ErrorLog().Append(context.TODO(), &model.ErrorLogEntry{Category: "draft_generation", Message: "recent"})

			count, err := s.ErrorLog().CountSince(context.TODO(), time.Now().UTC().Add(-time.Minute))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(1)))

			count, err = s.ErrorLog().CountSince(context.TODO(), time.Now().UTC().Add(time.Minute))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(0)))
		})
	})

	Context("truncate", func() {
		It("keeps only the most recent entries", func() {
			for i := 1; i <= 5; i++ {
				s.ErrorLog().Append(context.TODO(), &model.ErrorLogEntry{
					Category: "draft_generation",
					Message:  fmt.Sprintf("failure %d", i),
				})
			}

			Expect(s.ErrorLog().Truncate(context.TODO(), 2)).To(BeNil())

			entries, err := s.ErrorLog().List(context.TODO(), nil, 10)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Message).To(Equal("failure 5"))
			Expect(entries[1].Message).To(Equal("failure 4"))
		})
	})
})
