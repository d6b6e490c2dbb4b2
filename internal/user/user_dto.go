package user

type InviteUserRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	FullName  string  `json:"full_name" binding:"required"`
	Gender    string  `json:"gender" binding:"required,oneof=male female"`
	RoleBand  string  `json:"role_band" binding:"required,oneof=ic manager hr admin"`
	RoleTitle string  `json:"role_title"`
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
	OrgUnitID *string `json:"org_unit_id" binding:"omitempty,uuid"`
	JoinDate  string  `json:"join_date" binding:"required"`
}

type UpdateUserRequest struct {
	FullName  string  `json:"full_name" binding:"required"`
	Gender    string  `json:"gender" binding:"required,oneof=male female"`
	RoleBand  string  `json:"role_band" binding:"required,oneof=ic manager hr admin"`
	RoleTitle string  `json:"role_title"`
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
	OrgUnitID *string `json:"org_unit_id" binding:"omitempty,uuid"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Gender    string  `json:"gender"`
	RoleBand  string  `json:"role_band"`
	RoleTitle string  `json:"role_title,omitempty"`
	ManagerID *string `json:"manager_id,omitempty"`
	OrgUnitID *string `json:"org_unit_id,omitempty"`
	JoinDate  string  `json:"join_date"`
	Active    bool    `json:"active"`
}

type UserOption struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}
