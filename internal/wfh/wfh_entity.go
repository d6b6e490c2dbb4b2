package wfh

import (
	"time"

	"github.com/google/uuid"

	"hrflow/internal/user"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const ResourceType = "wfh_request"

// WFHRequest has no leave type and no persisted day count. Nothing is
// debited for working from home; the working-day span is derived when
// the request is read.
type WFHRequest struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	StartDate    time.Time  `gorm:"type:date;not null"`
	EndDate      time.Time  `gorm:"type:date;not null"`
	Status       string     `gorm:"type:varchar(12);not null;default:'pending';index"`
	Comments     string     `gorm:"type:text"`
	ApprovalNote *string    `gorm:"type:text"`
	AppliedAt    time.Time  `gorm:"not null"`
	DecisionAt   *time.Time `gorm:""`
	DecidedBy    *uuid.UUID `gorm:"type:uuid"`

	User *user.User `gorm:"foreignKey:UserID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (WFHRequest) TableName() string {
	return "wfh_requests"
}

func (r *WFHRequest) Terminal() bool {
	return r.Status != StatusPending
}
