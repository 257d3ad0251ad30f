package stats

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.Customer{},
		&models.LoyaltyCard{},
		&models.Visit{},
		&models.Redemption{},
		&models.PointAdjustment{},
		&models.DailyVisitStat{},
	))
	return db
}

func seedVisits(t *testing.T, db *gorm.DB, merchantID uuid.UUID, date string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		visit := models.Visit{
			LoyaltyCardID: uuid.New(),
			MerchantID:    merchantID,
			VisitDate:     date,
		}
		require.NoError(t, db.Create(&visit).Error)
	}
}

func TestGetVisitsFilteredAndPaginated(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	merchantID := uuid.New()
	otherMerchant := uuid.New()

	seedVisits(t, db, merchantID, "2026-08-01", 3)
	seedVisits(t, db, merchantID, "2026-08-02", 2)
	seedVisits(t, db, otherMerchant, "2026-08-01", 4)

	visits, total, err := svc.GetVisits(merchantID, "", "", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, visits, 5)

	// Inclusive date range.
	visits, total, err = svc.GetVisits(merchantID, "2026-08-02", "2026-08-02", 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, visits, 2)

	// Page past the end is empty but keeps the full count.
	visits, total, err = svc.GetVisits(merchantID, "", "", 3, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, visits)
}

func TestGetRedemptionsScopedToMerchant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	merchantID := uuid.New()

	for i := 0; i < 2; i++ {
		redemption := models.Redemption{
			LoyaltyCardID:     uuid.New(),
			MerchantID:        merchantID,
			Tier:              models.Tier1,
			StampsSpent:       10,
			RewardDescription: fmt.Sprintf("reward %d", i),
		}
		require.NoError(t, db.Create(&redemption).Error)
	}
	other := models.Redemption{LoyaltyCardID: uuid.New(), MerchantID: uuid.New(), Tier: models.Tier1}
	require.NoError(t, db.Create(&other).Error)

	redemptions, total, err := svc.GetRedemptions(merchantID, 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, redemptions, 2)
}

func TestRollupDailyVisits(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	merchantA := uuid.New()
	merchantB := uuid.New()

	seedVisits(t, db, merchantA, "2026-08-30", 3)
	seedVisits(t, db, merchantB, "2026-08-30", 1)
	seedVisits(t, db, merchantA, "2026-08-29", 2)

	require.NoError(t, svc.RollupDailyVisits("2026-08-30"))

	rows, err := svc.GetDailyVisitStats(merchantA, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-08-30", rows[0].Date)
	assert.Equal(t, 3, rows[0].VisitCount)

	// Re-running after more visits updates in place instead of
	// duplicating.
	seedVisits(t, db, merchantA, "2026-08-30", 1)
	require.NoError(t, svc.RollupDailyVisits("2026-08-30"))

	rows, err = svc.GetDailyVisitStats(merchantA, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].VisitCount)

	rows, err = svc.GetDailyVisitStats(merchantB, "", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].VisitCount)
}
