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
	"github.com/bidready/draft-service/internal/service"
	st "github.com/bidready/draft-service/internal/store"
	"github.com/bidready/draft-service/internal/store/model"
	"github.com/bidready/draft-service/internal/worker"
)

var _ = Describe("scheduler", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
		svc    *service.DraftService
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())

		svc = service.NewDraftService(s, nil)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM draft_jobs;")
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM users;")
		gormdb.Exec("DELETE FROM templates;")
		gormdb.Exec("DELETE FROM error_log_entries;")
	})

	newScheduler := func(id string) *worker.Scheduler {
		executor := worker.NewExecutor(s, generator.New(generator.NewTidyEnhancer()), nil, id, 5, 1.0)
		return worker.NewScheduler(worker.SchedulerConfig{
			WorkerID:     id,
			PollInterval: 50 * time.Millisecond,
			Lease:        2 * time.Minute,
			BatchSize:    5,
		}, s, executor)
	}

	seedContext := func() *model.Job {
		user, err := s.User().Create(context.TODO(), &model.User{
			ID:              uuid.New(),
			PriceMultiplier: 1.0,
		})
		Expect(err).To(BeNil())

		job, err := s.Job().Create(context.TODO(), &model.Job{
			ID:      uuid.New(),
			UserID:  user.ID,
			Trade:   "roofing",
			JobType: "replacement",
			Size:    "medium",
			Notes:   "single story",
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
		})
		Expect(err).To(BeNil())

		return job
	}

	It("claims an enqueued draft within a poll interval and drives it to ready", func() {
		job := seedContext()

		draft, err := svc.Enqueue(context.TODO(), job.ID, nil, nil)
		Expect(err).To(BeNil())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		scheduler := newScheduler("draft-worker-e2e")
		scheduler.Start(ctx)
		defer scheduler.Stop()

		Eventually(func() string {
			got, err := s.DraftJob().Get(context.TODO(), draft.ID)
			if err != nil {
				return ""
			}
			return got.Status
		}, "3s", "50ms").Should(Equal(string(api.DraftJobStatusReady)))

		got, err := s.DraftJob().Get(context.TODO(), draft.ID)
		Expect(err).To(BeNil())
		Expect(got.Payload).ToNot(BeNil())
		Expect(got.Payload.Data.LineItems).To(HaveLen(1))
		Expect(got.Payload.Data.LineItems[0].Price).To(Equal(api.PriceRange{Low: 1000, High: 1400}))
		Expect(got.Attempts).To(Equal(1))

		parent, err := s.Job().Get(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		Expect(parent.Status).To(Equal(api.JobStatusDrafted))
	})

	It("drains multiple pending drafts one iteration at a time", func() {
		job := seedContext()

		first, err := svc.Enqueue(context.TODO(), job.ID, nil, nil)
		Expect(err).To(BeNil())
		second, err := svc.Enqueue(context.TODO(), job.ID, nil, nil)
		Expect(err).To(BeNil())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		scheduler := newScheduler("draft-worker-e2e")
		scheduler.Start(ctx)
		defer scheduler.Stop()

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			Eventually(func() string {
				got, err := s.DraftJob().Get(context.TODO(), id)
				if err != nil {
					return ""
				}
				return got.Status
			}, "3s", "50ms").Should(Equal(string(api.DraftJobStatusReady)))
		}
	})

	It("keeps polling after a job that cannot resolve its context", func() {
		// draft for a job that does not exist: rescheduled, not fatal
		orphan, err := s.DraftJob().Create(context.TODO(), model.NewDraftJob(uuid.New(), nil, nil))
		Expect(err).To(BeNil())

		job := seedContext()
		draft, err := svc.Enqueue(context.TODO(), job.ID, nil, nil)
		Expect(err).To(BeNil())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		scheduler := newScheduler("draft-worker-e2e")
		scheduler.Start(ctx)
		defer scheduler.Stop()

		Eventually(func() string {
			got, err := s.DraftJob().Get(context.TODO(), draft.ID)
			if err != nil {
				return ""
			}
			return got.Status
		}, "3s", "50ms").Should(Equal(string(api.DraftJobStatusReady)))

		// the orphan ends up rescheduled with its failure recorded
		Eventually(func() bool {
			got, err := s.DraftJob().Get(context.TODO(), orphan.ID)
			if err != nil {
				return false
			}
			return got.Status == string(api.DraftJobStatusPending) && got.Error != nil && got.Attempts >= 1
		}, "3s", "50ms").Should(BeTrue())
	})
})
