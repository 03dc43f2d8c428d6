package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingSettings is per-tenant policy for direct bookings.
type BookingSettings struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID           uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	AutoConfirm        bool             `gorm:"column:auto_confirm;not null;default:false"`
	RequireDeposit     bool             `gorm:"column:require_deposit;not null;default:false"`
	DepositMonths      int              `gorm:"column:deposit_months;not null;default:1"`
	FixedDepositAmount *decimal.Decimal `gorm:"column:fixed_deposit_amount;type:numeric(12,2)"`
	PendingTTLHours    int              `gorm:"column:pending_ttl_hours;not null;default:48"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Deposit returns the deposit owed for a booking with the given
// monthly price. Zero when deposits are disabled.
func (s *BookingSettings) Deposit(monthlyPrice decimal.Decimal) decimal.Decimal {
	if !s.RequireDeposit {
		return decimal.Zero
	}
	if s.FixedDepositAmount != nil {
		return *s.FixedDepositAmount
	}
	months := s.DepositMonths
	if months <= 0 {
		months = 1
	}
	return monthlyPrice.Mul(decimal.NewFromInt(int64(months)))
}
