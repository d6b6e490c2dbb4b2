package leave

type SubmitLeaveRequest struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Comments    string `json:"comments" binding:"required"`
}

type DecisionRequest struct {
	Note *string `json:"note"`
}

type UpdateCommentsRequest struct {
	Comments string `json:"comments" binding:"required"`
}

type AttachDocumentRequest struct {
	DocumentURL string `json:"document_url" binding:"required,url"`
}

type LeaveResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	UserName      string  `json:"user_name,omitempty"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName string  `json:"leave_type_name,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalDays     int     `json:"total_days"`
	Status        string  `json:"status"`
	Comments      string  `json:"comments"`
	ApprovalNote  *string `json:"approval_note,omitempty"`
	DocumentURL   *string `json:"document_url,omitempty"`
	AppliedAt     string  `json:"applied_at"`
	DecisionAt    *string `json:"decision_at,omitempty"`
	DecidedBy     *string `json:"decided_by,omitempty"`
}
