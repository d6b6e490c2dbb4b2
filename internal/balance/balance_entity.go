package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance holds the remaining days a user may draw for one leave type.
// Stored as numeric(8,2) so half-day bookings stay exact.
type Balance struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_balances_user_type"`
	LeaveTypeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_balances_user_type"`
	Days        decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Balance) TableName() string {
	return "balances"
}
