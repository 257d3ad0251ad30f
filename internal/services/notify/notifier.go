package notify

import (
	"log"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/queue"
)

// Notifier enqueues notification side effects of ledger operations.
// Everything here is fire-and-forget: an enqueue failure is logged and
// swallowed so a broken queue can never fail a check-in or redemption.
type Notifier struct {
	queue *queue.Queue
}

// NewNotifier creates a new notifier
func NewNotifier(q *queue.Queue) *Notifier {
	return &Notifier{queue: q}
}

// StampAddedPayload is the payload of a stamp_added job, used for
// "close to reward" nudges.
type StampAddedPayload struct {
	MerchantID    uuid.UUID `json:"merchant_id"`
	LoyaltyCardID uuid.UUID `json:"loyalty_card_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	NewStamps     int       `json:"new_stamps"`
	StampsTarget  int       `json:"stamps_target"`
}

// RewardUnlockedPayload is the payload of a reward_unlocked job.
type RewardUnlockedPayload struct {
	MerchantID    uuid.UUID `json:"merchant_id"`
	LoyaltyCardID uuid.UUID `json:"loyalty_card_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	Tier          int       `json:"tier"`
}

// ReferralVoucherMintedPayload is the payload of a
// referral_voucher_minted job, sent to the referrer.
type ReferralVoucherMintedPayload struct {
	MerchantID        uuid.UUID `json:"merchant_id"`
	ReferrerID        uuid.UUID `json:"referrer_id"`
	VoucherID         uuid.UUID `json:"voucher_id"`
	RewardDescription string    `json:"reward_description"`
}

// StampAdded signals that a check-in added a stamp.
func (n *Notifier) StampAdded(payload StampAddedPayload) {
	n.enqueue(queue.JobTypeStampAdded, payload)
}

// RewardUnlocked signals that a balance reached a reward threshold.
func (n *Notifier) RewardUnlocked(payload RewardUnlockedPayload) {
	n.enqueue(queue.JobTypeRewardUnlocked, payload)
}

// ReferralVoucherMinted signals that the referral chain minted a
// voucher for the referrer.
func (n *Notifier) ReferralVoucherMinted(payload ReferralVoucherMintedPayload) {
	n.enqueue(queue.JobTypeReferralVoucherMinted, payload)
}

func (n *Notifier) enqueue(jobType queue.JobType, payload interface{}) {
	if n.queue == nil {
		return
	}
	if _, err := n.queue.EnqueueJob(jobType, payload); err != nil {
		log.Printf("Failed to enqueue %s notification: %v", jobType, err)
	}
}
