package leave

import (
	"time"

	"hrflow/internal/policy"
	"hrflow/internal/user"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const ResourceType = "leave_request"

// LeaveRequest rows are immutable after reaching a terminal status,
// except for the submitter's comments. The partial unique index on
// (user_id, leave_type_id, start_date, end_date) over non-terminal rows
// is what makes concurrent duplicate submissions lose cleanly.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	TotalDays   int       `gorm:"not null"`
	Status      string    `gorm:"type:varchar(10);not null;default:pending;index"`
	Comments    string    `gorm:"type:text;not null"`

	ApprovalNote *string    `gorm:"type:text"`
	DocumentURL  *string    `gorm:"type:text"`
	AppliedAt    time.Time  `gorm:"not null"`
	DecisionAt   *time.Time `gorm:""`
	DecidedBy    *uuid.UUID `gorm:"type:uuid"`

	User      *user.User        `gorm:"foreignKey:UserID"`
	LeaveType *policy.LeaveType `gorm:"foreignKey:LeaveTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (r *LeaveRequest) Terminal() bool {
	return r.Status != StatusPending
}
