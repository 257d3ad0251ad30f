package jobs

import (
	"github.com/stampeo/backend/internal/queue"
	"github.com/stampeo/backend/internal/services/email"
	"github.com/stampeo/backend/internal/services/stats"
	"gorm.io/gorm"
)

// RegisterAllJobHandlers registers all job handlers with the queue
func RegisterAllJobHandlers(
	q *queue.Queue,
	db *gorm.DB,
	redis *queue.RedisClient,
	emailSvc *email.EmailService,
) {
	RegisterNotificationJobHandlers(q, db, redis, emailSvc)
}

// ScheduleRecurringJobs schedules all recurring jobs
func ScheduleRecurringJobs(q *queue.Queue, statsSvc *stats.Service) (*MaintenanceJob, error) {
	maintenance := NewMaintenanceJob(q, statsSvc)
	if err := maintenance.Schedule(); err != nil {
		return nil, err
	}
	return maintenance, nil
}
