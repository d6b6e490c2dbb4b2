package actiontoken

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ActionToken is one half of an approve/reject pair mailed to an
// approver. Each half is single use; once the request leaves pending
// the unspent half dies at the state guard.
type ActionToken struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PairID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token        string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Action       string     `gorm:"type:varchar(10);not null"`
	ResourceType string     `gorm:"type:varchar(20);not null"`
	ResourceID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ApproverID   uuid.UUID  `gorm:"type:uuid;not null"`
	ExpiresAt    time.Time  `gorm:"not null"`
	UsedAt       *time.Time `gorm:""`

	CreatedAt time.Time
}

func (ActionToken) TableName() string {
	return "action_tokens"
}

func (t *ActionToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *ActionToken) Used() bool {
	return t.UsedAt != nil
}
