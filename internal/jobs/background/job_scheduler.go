package background

import (
	"context"
	"log"
	"sync"

	"github.com/go-co-op/gocron/v2"

	"transitpass/internal/common"
	"transitpass/internal/services"
)

// JobScheduler runs the daily billing sweeps. Renewals run before expirations
// so a subscription due on its end date is charged before it can lapse.
type JobScheduler struct {
	scheduler      gocron.Scheduler
	renewalService services.RenewalService
	jobs           map[string]gocron.Job
	mu             sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(renewalService services.RenewalService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:      scheduler,
		renewalService: renewalService,
		jobs:           make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Renewal sweep - daily at 02:00
	renewalJob, err := js.scheduler.NewJob(
		gocron.CronJob("0 2 * * *", false),
		gocron.NewTask(js.runRenewalSweep, context.Background()),
		gocron.WithName("subscription-renewals"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create renewal job: %v", err)
	} else {
		js.jobs["renewals"] = renewalJob
	}

	// Expiration sweep - daily at 03:00
	expirationJob, err := js.scheduler.NewJob(
		gocron.CronJob("0 3 * * *", false),
		gocron.NewTask(js.runExpirationSweep, context.Background()),
		gocron.WithName("subscription-expirations"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create expiration job: %v", err)
	} else {
		js.jobs["expirations"] = expirationJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// runRenewalSweep charges every subscription due for automatic renewal today.
func (js *JobScheduler) runRenewalSweep(ctx context.Context) error {
	log.Printf("Starting subscription renewal sweep")

	count, err := js.renewalService.ProcessAutomaticRenewals(ctx, common.Today())
	if err != nil {
		log.Printf("Renewal sweep failed: %v", err)
		return err
	}

	log.Printf("Renewal sweep completed, renewed %d subscriptions", count)
	return nil
}

// runExpirationSweep marks lapsed subscriptions as expired.
func (js *JobScheduler) runExpirationSweep(ctx context.Context) error {
	log.Printf("Starting subscription expiration sweep")

	count, err := js.renewalService.ExpireSubscriptions(ctx, common.Today())
	if err != nil {
		log.Printf("Expiration sweep failed: %v", err)
		return err
	}

	log.Printf("Expiration sweep completed, expired %d subscriptions", count)
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
