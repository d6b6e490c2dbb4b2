package wfh

type SubmitWFHRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Comments  string `json:"comments"`
}

type DecisionRequest struct {
	Note *string `json:"note"`
}

type UpdateCommentsRequest struct {
	Comments string `json:"comments" binding:"required"`
}

// WFHResponse carries WorkingDays computed from the span at read time;
// the column does not exist in storage.
type WFHResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name,omitempty"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	WorkingDays  int     `json:"working_days"`
	Status       string  `json:"status"`
	Comments     string  `json:"comments"`
	ApprovalNote *string `json:"approval_note,omitempty"`
	AppliedAt    string  `json:"applied_at"`
	DecisionAt   *string `json:"decision_at,omitempty"`
	DecidedBy    *string `json:"decided_by,omitempty"`
}
