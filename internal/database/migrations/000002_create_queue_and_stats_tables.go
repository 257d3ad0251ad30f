package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var createQueueAndStatsTables = &gormigrate.Migration{
	ID: "000002_create_queue_and_stats_tables",
	Migrate: func(tx *gorm.DB) error {
		return tx.Exec(`
			CREATE TABLE IF NOT EXISTS jobs (
				id UUID PRIMARY KEY,
				type VARCHAR(50) NOT NULL,
				payload JSONB,
				status VARCHAR(20) NOT NULL DEFAULT 'pending',
				retry_count INTEGER NOT NULL DEFAULT 0,
				max_retries INTEGER NOT NULL DEFAULT 3,
				next_retry TIMESTAMP WITH TIME ZONE,
				error TEXT,
				result JSONB,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE INDEX idx_jobs_status ON jobs(status);
			CREATE INDEX idx_jobs_type ON jobs(type);

			CREATE TABLE IF NOT EXISTS daily_visit_stats (
				id UUID PRIMARY KEY,
				merchant_id UUID NOT NULL REFERENCES merchants(id),
				date VARCHAR(10) NOT NULL,
				visit_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE,
				UNIQUE(merchant_id, date)
			);
		`).Error
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Exec(`
			DROP TABLE IF EXISTS daily_visit_stats;
			DROP TABLE IF EXISTS jobs;
		`).Error
	},
}
