package policy

type CreateLeaveTypeRequest struct {
	Kind                  string `json:"kind" binding:"required,oneof=annual sick unpaid compassionate maternity paternity custom"`
	Code                  string `json:"code"`
	Name                  string `json:"name" binding:"required"`
	DefaultAllocationDays string `json:"default_allocation_days" binding:"required"`
}

type LeaveTypeResponse struct {
	ID                    string `json:"id"`
	Kind                  string `json:"kind"`
	Code                  string `json:"code,omitempty"`
	Name                  string `json:"name"`
	DefaultAllocationDays string `json:"default_allocation_days"`
}

type CreatePolicyRequest struct {
	OrgUnitID              string `json:"org_unit_id" binding:"required,uuid"`
	LeaveTypeID            string `json:"leave_type_id" binding:"required,uuid"`
	AllocationDaysPerYear  string `json:"allocation_days_per_year" binding:"required"`
	AccrualFrequency       string `json:"accrual_frequency" binding:"required,oneof=monthly quarterly yearly one_time"`
	AccrualAmountPerPeriod string `json:"accrual_amount_per_period" binding:"required"`
}

type PolicyResponse struct {
	ID                     string `json:"id"`
	OrgUnitID              string `json:"org_unit_id"`
	LeaveTypeID            string `json:"leave_type_id"`
	LeaveTypeName          string `json:"leave_type_name,omitempty"`
	AllocationDaysPerYear  string `json:"allocation_days_per_year"`
	AccrualFrequency       string `json:"accrual_frequency"`
	AccrualAmountPerPeriod string `json:"accrual_amount_per_period"`
}

// ApplicablePolicy is the flattened (leave type, frequency, amount) view
// returned when listing the policies that cover a user.
type ApplicablePolicy struct {
	PolicyID         string `json:"policy_id"`
	LeaveTypeID      string `json:"leave_type_id"`
	LeaveTypeName    string `json:"leave_type_name"`
	AccrualFrequency string `json:"accrual_frequency"`
	AmountPerPeriod  string `json:"amount_per_period"`
}
