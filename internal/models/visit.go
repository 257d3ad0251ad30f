package models

import (
	"github.com/google/uuid"
)

// Visit is an append-only record of a successful check-in. The unique
// index on (loyalty_card_id, visit_date) is what guarantees at most one
// stamp per card per calendar day, even under concurrent requests.
type Visit struct {
	Base
	LoyaltyCardID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_visits_card_day" json:"loyalty_card_id"`
	LoyaltyCard   LoyaltyCard `gorm:"foreignKey:LoyaltyCardID" json:"-"`
	MerchantID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"merchant_id"`
	VisitDate     string      `gorm:"type:varchar(10);not null;uniqueIndex:idx_visits_card_day" json:"visit_date"`
}
