package loyalty

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stampeo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedCard creates a customer and a loyalty card at the given balance.
func seedCard(t *testing.T, db *gorm.DB, merchant *models.Merchant, stamps int) *models.LoyaltyCard {
	t.Helper()

	customer := models.Customer{
		MerchantID: merchant.ID,
		Phone:      "+336" + uuid.NewString()[:8],
		FirstName:  "Léa",
	}
	require.NoError(t, db.Create(&customer).Error)

	card := models.LoyaltyCard{
		CustomerID:    customer.ID,
		MerchantID:    merchant.ID,
		CurrentStamps: stamps,
		StampsTarget:  merchant.StampsRequired,
		ReferralCode:  uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(&card).Error)
	return &card
}

func TestRedeemSingleTierResets(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 12)

	result, err := svc.Redeem(card.ID, owner.ID, models.Tier1)
	require.NoError(t, err)
	assert.Equal(t, models.Tier1, result.Tier)
	assert.True(t, result.StampsReset)
	assert.Equal(t, 12, result.StampsSpent)
	assert.Equal(t, "Un café offert", result.RewardDescription)

	var reloaded models.LoyaltyCard
	require.NoError(t, db.First(&reloaded, "id = ?", card.ID).Error)
	assert.Equal(t, 0, reloaded.CurrentStamps)

	var redemption models.Redemption
	require.NoError(t, db.First(&redemption, "loyalty_card_id = ?", card.ID).Error)
	assert.Equal(t, models.Tier1, redemption.Tier)
	assert.Equal(t, 12, redemption.StampsSpent)

	// The card is empty now; a second redemption is insufficient, not a
	// replay.
	_, err = svc.Redeem(card.ID, owner.ID, models.Tier1)
	var insufficient *InsufficientStampsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Current)
	assert.Equal(t, 10, insufficient.Required)
}

func TestRedeemLostRaceConflicts(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 10)

	// Drain the balance between the service's eligibility read and its
	// guarded reset, the way a concurrent redemption that commits first
	// would. The callback fires on the card update inside the
	// redemption transaction and runs the drain on the same connection.
	drained := false
	err := db.Callback().Update().Before("gorm:update").Register("drain_balance", func(d *gorm.DB) {
		if drained {
			return
		}
		if _, ok := d.Statement.Model.(*models.LoyaltyCard); !ok {
			return
		}
		drained = true
		d.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE loyalty_cards SET current_stamps = 0 WHERE id = ?", card.ID)
	})
	require.NoError(t, err)
	defer db.Callback().Update().Remove("drain_balance")

	_, err = svc.Redeem(card.ID, owner.ID, models.Tier1)
	require.ErrorIs(t, err, ErrRedemptionConflict)
	assert.True(t, drained)

	// The losing transaction rolled back whole: no redemption row was
	// recorded and the card is exactly as it was before the attempt.
	var redemptions int64
	require.NoError(t, db.Model(&models.Redemption{}).
		Where("loyalty_card_id = ?", card.ID).Count(&redemptions).Error)
	assert.EqualValues(t, 0, redemptions)

	var reloaded models.LoyaltyCard
	require.NoError(t, db.First(&reloaded, "id = ?", card.ID).Error)
	assert.Equal(t, 10, reloaded.CurrentStamps)
}

func TestRedeemInsufficientStamps(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 7)

	_, err := svc.Redeem(card.ID, owner.ID, models.Tier1)
	var insufficient *InsufficientStampsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 7, insufficient.Current)
	assert.Equal(t, 10, insufficient.Required)

	var reloaded models.LoyaltyCard
	require.NoError(t, db.First(&reloaded, "id = ?", card.ID).Error)
	assert.Equal(t, 7, reloaded.CurrentStamps)
}

func TestRedeemInvalidTier(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 10)

	_, err := svc.Redeem(card.ID, owner.ID, 3)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "tier", validationErr.Field)
}

func TestRedeemTier2Disabled(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 20)

	_, err := svc.Redeem(card.ID, owner.ID, models.Tier2)
	assert.ErrorIs(t, err, ErrTierDisabled)
}

func TestRedeemWrongOwner(t *testing.T) {
	db := setupTestDB(t)
	merchant, _ := seedMerchant(t, db, nil)
	_, otherOwner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 10)

	_, err := svc.Redeem(card.ID, otherOwner.ID, models.Tier1)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func twoTierMerchant(m *models.Merchant) {
	m.StampsRequired = 10
	m.Tier2Enabled = true
	m.Tier2StampsRequired = 20
	m.Tier2RewardDescription = "Un repas offert"
}

func TestRedeemTier1CumulativeWithTier2(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, twoTierMerchant)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 10)

	result, err := svc.Redeem(card.ID, owner.ID, models.Tier1)
	require.NoError(t, err)
	assert.False(t, result.StampsReset)
	assert.Equal(t, 0, result.StampsSpent)

	// A tier 1 milestone does not touch the balance.
	var reloaded models.LoyaltyCard
	require.NoError(t, db.First(&reloaded, "id = ?", card.ID).Error)
	assert.Equal(t, 10, reloaded.CurrentStamps)

	// Tier 1 is spent for this cycle.
	_, err = svc.Redeem(card.ID, owner.ID, models.Tier1)
	assert.ErrorIs(t, err, ErrCycleViolation)
}

func TestRedeemTier2ResetsAndOpensNewCycle(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, twoTierMerchant)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 10)

	_, err := svc.Redeem(card.ID, owner.ID, models.Tier1)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.LoyaltyCard{}).
		Where("id = ?", card.ID).
		Update("current_stamps", 20).Error)

	result, err := svc.Redeem(card.ID, owner.ID, models.Tier2)
	require.NoError(t, err)
	assert.True(t, result.StampsReset)
	assert.Equal(t, 20, result.StampsSpent)
	assert.Equal(t, "Un repas offert", result.RewardDescription)

	var reloaded models.LoyaltyCard
	require.NoError(t, db.First(&reloaded, "id = ?", card.ID).Error)
	assert.Equal(t, 0, reloaded.CurrentStamps)

	// The tier 2 redemption closed the cycle: tier 1 is claimable again
	// once the balance gets there.
	require.NoError(t, db.Model(&models.LoyaltyCard{}).
		Where("id = ?", card.ID).
		Update("current_stamps", 10).Error)

	again, err := svc.Redeem(card.ID, owner.ID, models.Tier1)
	require.NoError(t, err)
	assert.False(t, again.StampsReset)
}

func TestRedeemTier2SkippingTier1(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, twoTierMerchant)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 20)

	// Never claiming tier 1 is allowed; tier 2 just resets everything.
	result, err := svc.Redeem(card.ID, owner.ID, models.Tier2)
	require.NoError(t, err)
	assert.True(t, result.StampsReset)
	assert.Equal(t, 20, result.StampsSpent)
}

func TestRewardStateTransitions(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, twoTierMerchant)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 4)

	state, err := svc.RewardState(card.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBelowTier1, state.State)

	require.NoError(t, db.Model(&models.LoyaltyCard{}).
		Where("id = ?", card.ID).Update("current_stamps", 10).Error)
	state, err = svc.RewardState(card.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTier1Ready, state.State)

	_, err = svc.Redeem(card.ID, owner.ID, models.Tier1)
	require.NoError(t, err)
	state, err = svc.RewardState(card.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTier1ClaimedAwaitingTier2, state.State)
	assert.True(t, state.Tier1ClaimedThisCycle)

	require.NoError(t, db.Model(&models.LoyaltyCard{}).
		Where("id = ?", card.ID).Update("current_stamps", 20).Error)
	state, err = svc.RewardState(card.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTier2Ready, state.State)

	_, err = svc.Redeem(card.ID, owner.ID, models.Tier2)
	require.NoError(t, err)
	state, err = svc.RewardState(card.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBelowTier1, state.State)
	assert.False(t, state.Tier1ClaimedThisCycle)
}

func TestRewardStateSingleTier(t *testing.T) {
	db := setupTestDB(t)
	merchant, owner := seedMerchant(t, db, nil)
	svc := NewService(db)
	card := seedCard(t, db, merchant, 10)

	state, err := svc.RewardState(card.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, StateTier1Ready, state.State)
	assert.False(t, state.Tier2Enabled)
}
