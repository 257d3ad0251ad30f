package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/stampeo/backend/internal/models"
	"github.com/stampeo/backend/internal/queue"
	"github.com/stampeo/backend/internal/services/stats"
)

// completedJobRetention is how long completed queue jobs are kept
// before the nightly purge removes them.
const completedJobRetention = 7 * 24 * time.Hour

// MaintenanceJob runs nightly housekeeping: purges old completed queue
// jobs and rolls up the previous day's visit counts for the dashboards.
type MaintenanceJob struct {
	queue     *queue.Queue
	statsSvc  *stats.Service
	scheduler *gocron.Scheduler
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(q *queue.Queue, statsSvc *stats.Service) *MaintenanceJob {
	return &MaintenanceJob{
		queue:     q,
		statsSvc:  statsSvc,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Schedule starts the nightly run. 03:00 UTC keeps it outside shop
// hours for every supported merchant timezone.
func (j *MaintenanceJob) Schedule() error {
	if _, err := j.scheduler.Every(1).Day().At("03:00").Do(j.Run); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (j *MaintenanceJob) Stop() {
	j.scheduler.Stop()
}

// Run executes one maintenance pass.
func (j *MaintenanceJob) Run() {
	purged, err := j.queue.PurgeCompleted(time.Now().Add(-completedJobRetention))
	if err != nil {
		log.Printf("Maintenance: failed to purge completed jobs: %v", err)
	} else if purged > 0 {
		log.Printf("Maintenance: purged %d completed jobs", purged)
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(models.DateFormat)
	if err := j.statsSvc.RollupDailyVisits(yesterday); err != nil {
		log.Printf("Maintenance: failed to roll up daily visits for %s: %v", yesterday, err)
	}
}
