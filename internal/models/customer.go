package models

import (
	"strings"

	"github.com/google/uuid"
)

// Customer is a merchant-scoped relationship record keyed by phone
// number. The same phone under two merchants is two customer rows.
type Customer struct {
	Base
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customers_merchant_phone" json:"merchant_id"`
	Merchant   Merchant  `gorm:"foreignKey:MerchantID" json:"-"`
	Phone      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_customers_merchant_phone" json:"phone"`
	FirstName  string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName   string    `gorm:"type:varchar(100)" json:"last_name"`
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
