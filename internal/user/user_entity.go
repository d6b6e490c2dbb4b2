package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Role bands, lowest to highest privilege.
const (
	RoleIC      = "ic"
	RoleManager = "manager"
	RoleHR      = "hr"
	RoleAdmin   = "admin"
)

// User carries both identity and reporting-graph position. ManagerID is a
// self-referential nullable foreign key; the manager link decides approval
// authority. Deactivation clears Active, hard delete is only possible when
// no request rows reference the user.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email        string     `gorm:"size:255;not null;uniqueIndex"`
	FullName     string     `gorm:"size:255;not null"`
	PasswordHash string     `gorm:"size:100;not null"`
	Gender       string     `gorm:"type:varchar(10);not null"`
	RoleBand     string     `gorm:"type:varchar(10);not null;default:'ic'"`
	RoleTitle    string     `gorm:"size:120"`
	ManagerID    *uuid.UUID `gorm:"type:uuid;index"`
	OrgUnitID    *uuid.UUID `gorm:"type:uuid;index"`
	JoinDate     time.Time  `gorm:"type:date;not null"`
	Active       bool       `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

// IsApproverRole reports whether the role band alone grants decision
// rights over any request. Managers additionally need the direct report
// link, which is checked against the request owner.
func (u *User) IsApproverRole() bool {
	return u.RoleBand == RoleHR || u.RoleBand == RoleAdmin
}
