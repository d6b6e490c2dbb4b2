package notification

import "time"

const Topic = "hr.leave.notifications.v1"

// Event types carried on the notification topic. The consumer turns each
// into an email; delivery is best-effort and never reaches back into the
// transaction that emitted the event.
const (
	EventRequestSubmitted    = "request_submitted"
	EventRequestApproved     = "request_approved"
	EventRequestRejected     = "request_rejected"
	EventRequestAutoRejected = "request_auto_rejected"
	EventSickAutoApproved    = "sick_request_auto_approved"
	EventRequestCancelled    = "request_cancelled"
	EventUserInvited         = "user_invited"
)

// Event is the wire shape published to Kafka. ApproveURL/RejectURL are
// only set on submission events addressed to an approver.
type Event struct {
	EventType    string    `json:"event_type"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	ApproveURL   string    `json:"approve_url,omitempty"`
	RejectURL    string    `json:"reject_url,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
