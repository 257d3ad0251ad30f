package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/stampeo/backend/internal/models"
	"github.com/stampeo/backend/internal/queue"
	"github.com/stampeo/backend/internal/services/email"
	"github.com/stampeo/backend/internal/services/notify"
	"gorm.io/gorm"
)

// NotificationJob delivers loyalty events: publishes them to the Redis
// channel consumed by the push gateway and, where relevant, emails the
// merchant owner.
type NotificationJob struct {
	db       *gorm.DB
	redis    *queue.RedisClient
	emailSvc *email.EmailService
}

// NewNotificationJob creates a new notification job handler
func NewNotificationJob(db *gorm.DB, redis *queue.RedisClient, emailSvc *email.EmailService) *NotificationJob {
	return &NotificationJob{db: db, redis: redis, emailSvc: emailSvc}
}

// RegisterNotificationJobHandlers registers the notification job handlers
func RegisterNotificationJobHandlers(q *queue.Queue, db *gorm.DB, redis *queue.RedisClient, emailSvc *email.EmailService) {
	handler := NewNotificationJob(db, redis, emailSvc)
	q.RegisterHandler(queue.JobTypeStampAdded, handler.ProcessStampAdded)
	q.RegisterHandler(queue.JobTypeRewardUnlocked, handler.ProcessRewardUnlocked)
	q.RegisterHandler(queue.JobTypeReferralVoucherMinted, handler.ProcessReferralVoucherMinted)
}

// publish forwards the event to the push gateway channel.
func (j *NotificationJob) publish(jobType queue.JobType, payload interface{}) error {
	if j.redis == nil {
		return nil
	}
	return j.redis.Publish(jobType, payload)
}

// merchantOwnerEmail resolves the owner account email for a merchant.
func (j *NotificationJob) merchantOwnerEmail(merchantID interface{}) (string, string, error) {
	var merchant models.Merchant
	if err := j.db.Preload("User").First(&merchant, "id = ?", merchantID).Error; err != nil {
		return "", "", fmt.Errorf("error finding merchant: %w", err)
	}
	return merchant.User.Email, merchant.Name, nil
}

// ProcessStampAdded handles a stamp_added job.
func (j *NotificationJob) ProcessStampAdded(ctx context.Context, job queue.Job) (interface{}, error) {
	var payload notify.StampAddedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stamp_added payload: %w", err)
	}
	return nil, j.publish(queue.JobTypeStampAdded, payload)
}

// ProcessRewardUnlocked handles a reward_unlocked job.
func (j *NotificationJob) ProcessRewardUnlocked(ctx context.Context, job queue.Job) (interface{}, error) {
	var payload notify.RewardUnlockedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reward_unlocked payload: %w", err)
	}

	if err := j.publish(queue.JobTypeRewardUnlocked, payload); err != nil {
		return nil, err
	}

	ownerEmail, merchantName, err := j.merchantOwnerEmail(payload.MerchantID)
	if err != nil {
		return nil, err
	}
	if err := j.emailSvc.SendRewardUnlockedEmail(ownerEmail, merchantName, payload.CustomerName, payload.Tier); err != nil {
		// The push already went out; a failed email is not worth a retry
		// storm.
		log.Printf("Failed to send reward unlocked email: %v", err)
	}
	return nil, nil
}

// ProcessReferralVoucherMinted handles a referral_voucher_minted job.
func (j *NotificationJob) ProcessReferralVoucherMinted(ctx context.Context, job queue.Job) (interface{}, error) {
	var payload notify.ReferralVoucherMintedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal referral_voucher_minted payload: %w", err)
	}

	if err := j.publish(queue.JobTypeReferralVoucherMinted, payload); err != nil {
		return nil, err
	}

	ownerEmail, merchantName, err := j.merchantOwnerEmail(payload.MerchantID)
	if err != nil {
		return nil, err
	}
	if err := j.emailSvc.SendReferralCompletedEmail(ownerEmail, merchantName, payload.RewardDescription); err != nil {
		log.Printf("Failed to send referral completed email: %v", err)
	}
	return nil, nil
}
