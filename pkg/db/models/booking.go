package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// Booking is a reservation request or commitment for one unit. Customer
// fields are a snapshot taken at creation time, not a live reference.
type Booking struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token             uuid.UUID              `gorm:"column:token;type:uuid;not null;uniqueIndex"`
	Number            string                 `gorm:"column:number;not null;uniqueIndex:ux_bookings_tenant_number,priority:2"`
	TenantID          uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_bookings_tenant_number,priority:1"`
	SiteID            uuid.UUID              `gorm:"column:site_id;type:uuid;not null;index"`
	UnitID            *uuid.UUID             `gorm:"column:unit_id;type:uuid;index"`
	CustomerFirstName string                 `gorm:"column:customer_first_name;not null"`
	CustomerLastName  string                 `gorm:"column:customer_last_name;not null"`
	CustomerEmail     string                 `gorm:"column:customer_email;not null"`
	CustomerPhone     string                 `gorm:"column:customer_phone"`
	StartDate         time.Time              `gorm:"column:start_date;type:date;not null"`
	EndDate           *time.Time             `gorm:"column:end_date;type:date"`
	MonthlyPrice      decimal.Decimal        `gorm:"column:monthly_price;type:numeric(12,2);not null"`
	DiscountAmount    decimal.Decimal        `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	DepositAmount     decimal.Decimal        `gorm:"column:deposit_amount;type:numeric(12,2);not null;default:0"`
	Status            enums.BookingStatus    `gorm:"column:status;type:text;not null;default:'pending';index"`
	Source            enums.BookingSource    `gorm:"column:source;type:text;not null;default:'website'"`
	PromoCode         *string                `gorm:"column:promo_code"`
	Notes             string                 `gorm:"column:notes"`
	History           []BookingStatusHistory `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BookingStatusHistory is the append-only log of booking transitions.
// Exactly one row is written per transition.
type BookingStatusHistory struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID  uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`
	FromStatus *string   `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status;not null"`
	Notes      string    `gorm:"column:notes"`
	ActorID    string    `gorm:"column:actor_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
