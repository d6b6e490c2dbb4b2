package policy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Built-in leave kinds. Each may exist at most once; any number of custom
// kinds may coexist, distinguished by Code.
const (
	KindAnnual        = "annual"
	KindSick          = "sick"
	KindUnpaid        = "unpaid"
	KindCompassionate = "compassionate"
	KindMaternity     = "maternity"
	KindPaternity     = "paternity"
	KindCustom        = "custom"
)

const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
	FrequencyOneTime   = "one_time"
)

// Accrual frequencies recognised by the scheduler.
const (
	FreqMonthly   = "monthly"
	FreqQuarterly = "quarterly"
	FreqYearly    = "yearly"
	FreqOneTime   = "one_time"
)

type LeaveType struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Kind                  string          `gorm:"type:varchar(20);not null"`
	Code                  string          `gorm:"size:40"` // only for custom kinds
	Name                  string          `gorm:"size:120;not null"`
	DefaultAllocationDays decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}

// LeavePolicy binds an accrual rule to an org unit. The policy applies to
// every user whose org unit sits in the subtree rooted at OrgUnitID.
type LeavePolicy struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrgUnitID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	LeaveTypeID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	AllocationDaysPerYear  decimal.Decimal `gorm:"type:numeric(8,2);not null"`
	AccrualFrequency       string          `gorm:"type:varchar(12);not null"`
	AccrualAmountPerPeriod decimal.Decimal `gorm:"type:numeric(8,2);not null"`

	LeaveType *LeaveType `gorm:"foreignKey:LeaveTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (LeavePolicy) TableName() string {
	return "leave_policies"
}
