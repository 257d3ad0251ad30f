package loyalty

import (
	"fmt"
	"testing"
	"time"

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
		&models.Referral{},
		&models.Voucher{},
	))
	return db
}

func seedMerchant(t *testing.T, db *gorm.DB, mutate func(*models.Merchant)) (*models.Merchant, *models.User) {
	t.Helper()

	user := models.User{
		Email:        fmt.Sprintf("owner-%s@example.com", uuid.NewString()[:8]),
		FirstName:    "Marie",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)

	merchant := models.Merchant{
		UserID:            user.ID,
		Name:              "Café Test",
		Slug:              fmt.Sprintf("cafe-test-%s", uuid.NewString()[:8]),
		Country:           "FR",
		Timezone:          "Europe/Paris",
		StampsRequired:    10,
		RewardDescription: "Un café offert",
	}
	if mutate != nil {
		mutate(&merchant)
	}
	require.NoError(t, db.Create(&merchant).Error)
	return &merchant, &user
}

// backdateVisit moves a card's last visit (and its visit row for that
// day) to a past day so the next check-in is allowed.
func backdateVisit(t *testing.T, db *gorm.DB, cardID uuid.UUID, fromDay, toDay string) {
	t.Helper()
	require.NoError(t, db.Model(&models.LoyaltyCard{}).
		Where("id = ?", cardID).
		Update("last_visit_date", toDay).Error)
	require.NoError(t, db.Model(&models.Visit{}).
		Where("loyalty_card_id = ? AND visit_date = ?", cardID, fromDay).
		Update("visit_date", toDay).Error)
}

func todayIn(tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format(models.DateFormat)
}

func TestCheckInFirstVisit(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	svc := NewService(db)

	result, err := svc.CheckIn(merchant.Slug, "06 12 34 56 78", "Léa", "Martin")
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewStamps)
	assert.Equal(t, 10, result.StampsRequired)
	assert.Equal(t, "Léa Martin", result.CustomerName)
	assert.False(t, result.RewardUnlocked)

	var customer models.Customer
	require.NoError(t, db.First(&customer, "id = ?", result.CustomerID).Error)
	assert.Equal(t, "+33612345678", customer.Phone)

	var card models.LoyaltyCard
	require.NoError(t, db.First(&card, "id = ?", result.CardID).Error)
	assert.Equal(t, 1, card.CurrentStamps)
	assert.Equal(t, todayIn(merchant.Timezone), card.LastVisitDate)
	assert.Len(t, card.ReferralCode, ReferralCodeLength)

	var visitCount int64
	require.NoError(t, db.Model(&models.Visit{}).Where("loyalty_card_id = ?", card.ID).Count(&visitCount).Error)
	assert.EqualValues(t, 1, visitCount)
}

func TestCheckInSameDayRejected(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	svc := NewService(db)

	first, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)

	second, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.NotNil(t, second)
	assert.Equal(t, 1, second.NewStamps)
	assert.Equal(t, "Léa", second.CustomerName)

	// The rejected attempt must leave the ledger untouched.
	var card models.LoyaltyCard
	require.NoError(t, db.First(&card, "id = ?", first.CardID).Error)
	assert.Equal(t, 1, card.CurrentStamps)

	var visitCount int64
	require.NoError(t, db.Model(&models.Visit{}).Where("loyalty_card_id = ?", card.ID).Count(&visitCount).Error)
	assert.EqualValues(t, 1, visitCount)
}

func TestCheckInNextDay(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	svc := NewService(db)

	first, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)

	backdateVisit(t, db, first.CardID, todayIn(merchant.Timezone), "2024-01-01")

	second, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)
	assert.Equal(t, 2, second.NewStamps)
	assert.Equal(t, first.CardID, second.CardID)
}

func TestCheckInLostInsertRace(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	svc := NewService(db)

	first, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)

	// Simulate losing the insert race: today's visit row exists but the
	// card's date column was not updated yet.
	require.NoError(t, db.Model(&models.LoyaltyCard{}).
		Where("id = ?", first.CardID).
		Update("last_visit_date", "").Error)

	result, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.NewStamps)

	var card models.LoyaltyCard
	require.NoError(t, db.First(&card, "id = ?", first.CardID).Error)
	assert.Equal(t, 1, card.CurrentStamps)
}

func TestCheckInUnknownMerchant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.CheckIn("no-such-shop", "0612345678", "Léa", "")
	assert.ErrorIs(t, err, ErrMerchantNotFound)
}

func TestCheckInInvalidPhone(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	svc := NewService(db)

	_, err := svc.CheckIn(merchant.Slug, "0112345678", "Léa", "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "phone_number", validationErr.Field)
}

func TestCheckInUnlocksTier1(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, func(m *models.Merchant) {
		m.StampsRequired = 2
	})
	svc := NewService(db)

	first, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)
	assert.False(t, first.RewardUnlocked)

	backdateVisit(t, db, first.CardID, todayIn(merchant.Timezone), "2024-01-01")

	second, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)
	assert.Equal(t, 2, second.NewStamps)
	assert.True(t, second.RewardUnlocked)
	assert.False(t, second.Tier2Unlocked)
}

func TestCheckInUnlocksTier2(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, func(m *models.Merchant) {
		m.StampsRequired = 1
		m.Tier2Enabled = true
		m.Tier2StampsRequired = 2
		m.Tier2RewardDescription = "Un repas offert"
	})
	svc := NewService(db)

	first, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)
	assert.True(t, first.RewardUnlocked)
	assert.False(t, first.Tier2Unlocked)

	backdateVisit(t, db, first.CardID, todayIn(merchant.Timezone), "2024-01-01")

	second, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)
	assert.True(t, second.Tier2Unlocked)
}

func TestAdjustPointsPositive(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)

	checkin, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)

	result, err := svc.AdjustPoints(checkin.CardID, owner.ID, 3, "goodwill")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Previous)
	assert.Equal(t, 4, result.New)
	assert.Equal(t, 3, result.RequestedDelta)
	assert.Equal(t, 3, result.AppliedDelta)

	var adjustment models.PointAdjustment
	require.NoError(t, db.First(&adjustment, "loyalty_card_id = ?", checkin.CardID).Error)
	assert.Equal(t, 3, adjustment.RequestedDelta)
	assert.Equal(t, 3, adjustment.AppliedDelta)
	assert.Equal(t, 4, adjustment.NewBalance)
	assert.Equal(t, owner.ID, adjustment.UserID)
	assert.Equal(t, "goodwill", adjustment.Reason)
}

func TestAdjustPointsClampedAtZero(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)

	checkin, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)
	_, err = svc.AdjustPoints(checkin.CardID, owner.ID, 2, "")
	require.NoError(t, err)

	// Balance is 3; removing 5 must floor at 0 and record both deltas.
	result, err := svc.AdjustPoints(checkin.CardID, owner.ID, -5, "correction")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Previous)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, -5, result.RequestedDelta)
	assert.Equal(t, -3, result.AppliedDelta)

	var card models.LoyaltyCard
	require.NoError(t, db.First(&card, "id = ?", checkin.CardID).Error)
	assert.Equal(t, 0, card.CurrentStamps)

	var adjustment models.PointAdjustment
	require.NoError(t, db.Order("created_at DESC").First(&adjustment, "loyalty_card_id = ?", checkin.CardID).Error)
	assert.Equal(t, -5, adjustment.RequestedDelta)
	assert.Equal(t, -3, adjustment.AppliedDelta)
	assert.Equal(t, 0, adjustment.NewBalance)
}

func TestAdjustPointsWrongOwner(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	_, otherOwner := seedMerchant(t, db, nil)
	svc := NewService(db)

	checkin, err := svc.CheckIn(merchant.Slug, "0612345678", "Léa", "")
	require.NoError(t, err)

	_, err = svc.AdjustPoints(checkin.CardID, otherOwner.ID, 1, "")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.AdjustPoints(uuid.New(), otherOwner.ID, 1, "")
	assert.ErrorIs(t, err, ErrCardNotFound)
}
