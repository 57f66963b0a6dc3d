package worker_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/bidready/draft-service/api/v1alpha1"
	"github.com/bidready/draft-service/internal/config"
	"github.com/bidready/draft-service/internal/generator"
	st "github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/internal/store/model"
	"github.com/bidready/draft-service/internal/worker"
)

const (
	workerID      = "draft-worker-test"
	leaseDuration = 2 * time.Minute
	maxAttempts   = 5
)

var _ = Describe("executor", Ordered, func() {
	var (
		s        st.Store
		gormdb   *gorm.DB
		executor *worker.Executor
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())

		executor = worker.NewExecutor(s, generator.New(generator.NewTidyEnhancer()), nil, workerID, maxAttempts, 1.0)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM draft_jobs;")
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM users;")
		gormdb.Exec("DELETE FROM templates;")
		gormdb.Exec("DELETE FROM photos;")
		gormdb.Exec("DELETE FROM error_log_entries;")
	})

	seedContext := func() *model.Job {
		user, err := s.User().Create(context.TODO(), &model.User{
			ID:              uuid.New(),
			Name:            "Dana",
			PriceMultiplier: 1.0,
		})
		Expect(err).To(BeNil())

		job, err := s.Job().Create(context.TODO(), &model.Job{
			ID:      uuid.New(),
			UserID:  user.ID,
			Trade:   "roofing",
			JobType: "replacement",
			Size:    "medium",
			Notes:   "steep pitch",
		})
		Expect(err).To(BeNil())

		_, err = s.Template().Create(context.TODO(), &model.Template{
			ID:               uuid.New(),
			Trade:            "roofing",
			JobType:          "replacement",
			ScopeItems:       model.MakeJSONField([]string{"remove old shingles", "install new shingles"}),
			PriceLow:         1000,
			PriceHigh:        1400,
			DurationDaysLow:  2,
			DurationDaysHigh: 4,
			Warranty:         "10 years on workmanship",
		})
		Expect(err).To(BeNil())

		return job
	}

	claimDraft := func(jobID uuid.UUID) (*model.DraftJob, time.Time) {
		draft, err := s.DraftJob().Create(context.TODO(), model.NewDraftJob(jobID, nil, nil))
		Expect(err).To(BeNil())

		claimedAt := time.Now().UTC()
		won, err := s.DraftJob().Claim(context.TODO(), draft.ID, workerID, claimedAt, leaseDuration)
		Expect(err).To(BeNil())
		Expect(won).To(BeTrue())
		return draft, claimedAt
	}

	Context("success", func() {
		It("writes the ready payload and flips the parent job to drafted", func() {
			job := seedContext()
			draft, claimedAt := claimDraft(job.ID)

			Expect(executor.Execute(context.TODO(), draft.ID, claimedAt)).To(BeNil())

			got, err := s.DraftJob().Get(context.TODO(), draft.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(string(api.DraftJobStatusReady)))
			Expect(got.LockedBy).To(BeNil())
			Expect(got.FinishedAt).ToNot(BeNil())
			Expect(got.Payload).ToNot(BeNil())
			Expect(got.Payload.Data.LineItems).To(HaveLen(1))
			Expect(got.Payload.Data.LineItems[0].Price).To(Equal(api.PriceRange{Low: 1000, High: 1400}))

			parent, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(parent.Status).To(Equal(api.JobStatusDrafted))
		})
	})

	Context("failure", func() {
		It("treats a missing parent job as a retryable failure with backoff", func() {
			draft, claimedAt := claimDraft(uuid.New())
			before := time.Now().UTC()

			Expect(executor.Execute(context.TODO(), draft.ID, claimedAt)).To(BeNil())

			got, err := s.DraftJob().Get(context.TODO(), draft.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(string(api.DraftJobStatusPending)))
			Expect(got.Error).ToNot(BeNil())
			Expect(got.NextAttemptAt).ToNot(BeNil())
			// first attempt: 2s backoff
			Expect(got.NextAttemptAt.Sub(before)).To(BeNumerically(">=", 2*time.Second))
			Expect(got.NextAttemptAt.Sub(before)).To(BeNumerically("<", 4*time.Second))
		})

		It("appends to the error log before the store write", func() {
			draft, claimedAt := claimDraft(uuid.New())

			Expect(executor.Execute(context.TODO(), draft.ID, claimedAt)).To(BeNil())

			entries, err := s.ErrorLog().List(context.TODO(), nil, 10)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Category).To(Equal("context_resolution"))
			Expect(entries[0].Attempt).To(Equal(1))
			Expect(entries[0].DraftJobID).ToNot(BeNil())
			Expect(*entries[0].DraftJobID).To(Equal(draft.ID))
		})

		It("marks the job failed terminally on the fifth attempt", func() {
			draft, err := s.DraftJob().Create(context.TODO(), model.NewDraftJob(uuid.New(), nil, nil))
			Expect(err).To(BeNil())

			tx := gormdb.Exec("UPDATE draft_jobs SET attempts = 4 WHERE id = ?", draft.ID)
			Expect(tx.Error).To(BeNil())

			claimedAt := time.Now().UTC()
			won, err := s.DraftJob().Claim(context.TODO(), draft.ID, workerID, claimedAt, leaseDuration)
			Expect(err).To(BeNil())
			Expect(won).To(BeTrue())

			Expect(executor.Execute(context.TODO(), draft.ID, claimedAt)).To(BeNil())

			got, err := s.DraftJob().Get(context.TODO(), draft.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(string(api.DraftJobStatusFailed)))
			Expect(got.Attempts).To(Equal(5))
			Expect(got.NextAttemptAt).To(BeNil())
			Expect(got.FinishedAt).ToNot(BeNil())
			Expect(got.Error).ToNot(BeNil())
		})

		It("discards the outcome when the claim was superseded mid-flight", func() {
			job := seedContext()
			draft, claimedAt := claimDraft(job.ID)

			tx := gormdb.Exec("UPDATE draft_jobs SET locked_by = 'other-worker', locked_at = ? WHERE id = ?", time.Now().UTC(), draft.ID)
			Expect(tx.Error).To(BeNil())

			Expect(executor.Execute(context.TODO(), draft.ID, claimedAt)).To(BeNil())

			got, err := s.DraftJob().Get(context.TODO(), draft.ID)
			Expect(err).To(BeNil())
			// the other worker's claim is untouched
			Expect(got.Status).To(Equal(string(api.DraftJobStatusProcessing)))
			Expect(*got.LockedBy).To(Equal("other-worker"))
			Expect(got.Payload).To(BeNil())
		})
	})
})
