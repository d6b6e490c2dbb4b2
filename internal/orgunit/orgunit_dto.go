package orgunit

type CreateOrgUnitRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

type UpdateOrgUnitRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

type OrgUnitResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}
