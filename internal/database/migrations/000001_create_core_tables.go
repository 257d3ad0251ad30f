package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var createCoreTables = &gormigrate.Migration{
	ID: "000001_create_core_tables",
	Migrate: func(tx *gorm.DB) error {
		if err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				email VARCHAR(255) NOT NULL UNIQUE,
				first_name VARCHAR(100),
				last_name VARCHAR(100),
				password_hash VARCHAR(255) NOT NULL,
				is_admin BOOLEAN DEFAULT FALSE,
				last_login_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE TABLE IF NOT EXISTS merchants (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id),
				name VARCHAR(100) NOT NULL,
				slug VARCHAR(100) NOT NULL UNIQUE,
				country VARCHAR(2) NOT NULL DEFAULT 'FR',
				timezone VARCHAR(50) NOT NULL DEFAULT 'Europe/Paris',
				stamps_required INTEGER NOT NULL DEFAULT 10,
				reward_description TEXT,
				tier2_enabled BOOLEAN DEFAULT FALSE,
				tier2_stamps_required INTEGER DEFAULT 0,
				tier2_reward_description TEXT,
				referral_enabled BOOLEAN DEFAULT FALSE,
				referred_reward_description TEXT,
				referrer_reward_description TEXT,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_merchants_user_id ON merchants(user_id);

			CREATE TABLE IF NOT EXISTS customers (
				id UUID PRIMARY KEY,
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				phone VARCHAR(20) NOT NULL,
				first_name VARCHAR(100),
				last_name VARCHAR(100),
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE,
				UNIQUE(merchant_id, phone)
			);

			CREATE TABLE IF NOT EXISTS loyalty_cards (
				id UUID PRIMARY KEY,
				customer_id UUID NOT NULL REFERENCES customers(id),
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				current_stamps INTEGER NOT NULL DEFAULT 0 CHECK (current_stamps >= 0),
				stamps_target INTEGER NOT NULL DEFAULT 0,
				last_visit_date VARCHAR(10),
				referral_code VARCHAR(12) NOT NULL UNIQUE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE,
				UNIQUE(customer_id, merchant_id)
			);

			CREATE INDEX idx_loyalty_cards_merchant_id ON loyalty_cards(merchant_id);
		`).Error; err != nil {
			return err
		}

		if err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS visits (
				id UUID PRIMARY KEY,
				loyalty_card_id UUID NOT NULL REFERENCES loyalty_cards(id),
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				visit_date VARCHAR(10) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE,
				UNIQUE(loyalty_card_id, visit_date)
			);

			CREATE INDEX idx_visits_merchant_id ON visits(merchant_id);

			CREATE TABLE IF NOT EXISTS redemptions (
				id UUID PRIMARY KEY,
				loyalty_card_id UUID NOT NULL REFERENCES loyalty_cards(id),
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				tier INTEGER NOT NULL,
				stamps_spent INTEGER NOT NULL,
				reward_description TEXT,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_redemptions_card_id ON redemptions(loyalty_card_id);
			CREATE INDEX idx_redemptions_merchant_id ON redemptions(merchant_id);

			CREATE TABLE IF NOT EXISTS point_adjustments (
				id UUID PRIMARY KEY,
				loyalty_card_id UUID NOT NULL REFERENCES loyalty_cards(id),
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				user_id UUID NOT NULL REFERENCES users(id),
				requested_delta INTEGER NOT NULL,
				applied_delta INTEGER NOT NULL,
				new_balance INTEGER NOT NULL,
				reason TEXT,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_point_adjustments_card_id ON point_adjustments(loyalty_card_id);

			CREATE TABLE IF NOT EXISTS vouchers (
				id UUID PRIMARY KEY,
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				customer_id UUID NOT NULL REFERENCES customers(id),
				loyalty_card_id UUID NOT NULL REFERENCES loyalty_cards(id),
				reward_description TEXT NOT NULL,
				source VARCHAR(20) NOT NULL,
				is_used BOOLEAN NOT NULL DEFAULT FALSE,
				used_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_vouchers_customer_id ON vouchers(customer_id);

			CREATE TABLE IF NOT EXISTS referrals (
				id UUID PRIMARY KEY,
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				referrer_card_id UUID NOT NULL REFERENCES loyalty_cards(id),
				referrer_customer_id UUID NOT NULL REFERENCES customers(id),
				referred_card_id UUID NOT NULL REFERENCES loyalty_cards(id),
				referred_customer_id UUID NOT NULL REFERENCES customers(id),
				referred_voucher_id UUID NOT NULL REFERENCES vouchers(id),
				referrer_voucher_id UUID REFERENCES vouchers(id),
				status VARCHAR(20) NOT NULL DEFAULT 'pending',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE,
				UNIQUE(referrer_card_id, referred_card_id)
			);

			CREATE INDEX idx_referrals_referred_voucher_id ON referrals(referred_voucher_id);
		`).Error; err != nil {
			return err
		}

		return nil
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Exec(`
			DROP TABLE IF EXISTS referrals;
			DROP TABLE IF EXISTS vouchers;
			DROP TABLE IF EXISTS point_adjustments;
			DROP TABLE IF EXISTS redemptions;
			DROP TABLE IF EXISTS visits;
			DROP TABLE IF EXISTS loyalty_cards;
			DROP TABLE IF EXISTS customers;
			DROP TABLE IF EXISTS merchants;
			DROP TABLE IF EXISTS users;
		`).Error
	},
}
