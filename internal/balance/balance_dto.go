package balance

type AdjustBalanceRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	Days        string `json:"days" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

type BalanceResponse struct {
	UserID      string `json:"user_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Days        string `json:"days"`
}
