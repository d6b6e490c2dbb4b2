package orgunit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgUnit is a node in the organizational forest. A nil ParentID marks a
// root. The tree must stay acyclic; the repo rejects reparenting a unit
// under its own subtree.
type OrgUnit struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name     string     `gorm:"size:255;not null"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (OrgUnit) TableName() string {
	return "org_units"
}
