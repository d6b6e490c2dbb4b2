package audit

import (
	"time"

	"github.com/google/uuid"
)

// Record is append-only: rows are inserted and never updated or deleted.
type Record struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ActorID      *uuid.UUID `gorm:"type:uuid;index"`
	Action       string     `gorm:"type:varchar(60);not null;index"`
	ResourceType string     `gorm:"type:varchar(30);not null"`
	ResourceID   *uuid.UUID `gorm:"type:uuid"`
	Metadata     []byte     `gorm:"type:jsonb"`
	CreatedAt    *time.Time `gorm:"index"`
}

func (Record) TableName() string {
	return "audit_records"
}

// Action names emitted by the request lifecycle and background jobs.
const (
	ActionLeaveSubmitted     = "leave_submitted"
	ActionLeaveApproved      = "leave_approved"
	ActionLeaveRejected      = "leave_rejected"
	ActionLeaveCancelled     = "leave_cancelled"
	ActionWFHSubmitted       = "wfh_submitted"
	ActionWFHApproved        = "wfh_approved"
	ActionWFHRejected        = "wfh_rejected"
	ActionWFHCancelled       = "wfh_cancelled"
	ActionBalanceAdjusted    = "balance_adjusted"
	ActionAccrualApplied     = "accrual_applied"
	ActionCarryForward       = "carry_forward_applied"
	ActionSickDocSweep       = "sick_doc_sweep_approved"
	ActionStaleAutoReject    = "stale_pending_auto_rejected"
	ActionAnniversaryReset   = "anniversary_reset_applied"
	ActionTokenRedeemed      = "action_token_redeemed"
	ActionPermissionDenied   = "permission_denied"
	ActionNotificationFailed = "notification_failed"
	ActionJobFailed          = "scheduler_job_failed"
	ActionUserInvited        = "user_invited"
	ActionUserDeactivated    = "user_deactivated"
)
