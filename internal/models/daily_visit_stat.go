package models

import (
	"github.com/google/uuid"
)

// DailyVisitStat is a rolled-up per-merchant visit count maintained by
// the nightly maintenance job for the admin dashboards. Derived data
// only; the Visit table stays the source of truth.
type DailyVisitStat struct {
	Base
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_stats_merchant_day" json:"merchant_id"`
	Date       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_stats_merchant_day" json:"date"`
	VisitCount int       `gorm:"not null;default:0" json:"visit_count"`
}
