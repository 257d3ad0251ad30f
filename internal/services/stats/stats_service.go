package stats

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"gorm.io/gorm"
)

// Service exposes read-only queries over the core's append-only
// records for dashboard and admin collaborators. Nothing here ever
// mutates a Visit, Redemption or PointAdjustment.
type Service struct {
	db *gorm.DB
}

// NewService creates a new stats service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// dateRange applies an optional inclusive visit-date range.
func dateRange(query *gorm.DB, column, from, to string) *gorm.DB {
	if from != "" {
		query = query.Where(column+" >= ?", from)
	}
	if to != "" {
		query = query.Where(column+" <= ?", to)
	}
	return query
}

// GetVisits returns a merchant's visits, newest first, paginated.
func (s *Service) GetVisits(merchantID uuid.UUID, from, to string, page, pageSize int) ([]models.Visit, int64, error) {
	var visits []models.Visit
	var total int64

	base := dateRange(s.db.Model(&models.Visit{}).Where("merchant_id = ?", merchantID), "visit_date", from, to)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting visits: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := base.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&visits).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding visits: %w", err)
	}
	return visits, total, nil
}

// GetRedemptions returns a merchant's redemptions, newest first, paginated.
func (s *Service) GetRedemptions(merchantID uuid.UUID, page, pageSize int) ([]models.Redemption, int64, error) {
	var redemptions []models.Redemption
	var total int64

	base := s.db.Model(&models.Redemption{}).Where("merchant_id = ?", merchantID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting redemptions: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := base.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&redemptions).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding redemptions: %w", err)
	}
	return redemptions, total, nil
}

// GetAdjustments returns a merchant's manual adjustments, newest first,
// paginated.
func (s *Service) GetAdjustments(merchantID uuid.UUID, page, pageSize int) ([]models.PointAdjustment, int64, error) {
	var adjustments []models.PointAdjustment
	var total int64

	base := s.db.Model(&models.PointAdjustment{}).Where("merchant_id = ?", merchantID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting adjustments: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := base.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&adjustments).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding adjustments: %w", err)
	}
	return adjustments, total, nil
}

// GetDailyVisitStats returns the rolled-up daily visit counts.
func (s *Service) GetDailyVisitStats(merchantID uuid.UUID, from, to string) ([]models.DailyVisitStat, error) {
	var rows []models.DailyVisitStat
	query := dateRange(s.db.Where("merchant_id = ?", merchantID), "date", from, to)
	if err := query.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error finding daily stats: %w", err)
	}
	return rows, nil
}

// RollupDailyVisits recomputes the per-merchant visit count for one
// calendar day. Safe to re-run: existing rows are updated in place.
func (s *Service) RollupDailyVisits(date string) error {
	type row struct {
		MerchantID uuid.UUID
		Count      int
	}

	var counts []row
	if err := s.db.Model(&models.Visit{}).
		Select("merchant_id, COUNT(*) AS count").
		Where("visit_date = ?", date).
		Group("merchant_id").
		Scan(&counts).Error; err != nil {
		return fmt.Errorf("error aggregating visits: %w", err)
	}

	for _, c := range counts {
		var stat models.DailyVisitStat
		err := s.db.Where("merchant_id = ? AND date = ?", c.MerchantID, date).First(&stat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stat = models.DailyVisitStat{MerchantID: c.MerchantID, Date: date, VisitCount: c.Count}
			if err := s.db.Create(&stat).Error; err != nil {
				return fmt.Errorf("error creating daily stat: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("error finding daily stat: %w", err)
		}
		if err := s.db.Model(&stat).Update("visit_count", c.Count).Error; err != nil {
			return fmt.Errorf("error updating daily stat: %w", err)
		}
	}
	return nil
}
