package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleEducator Role = "educator"
	RoleAdmin    Role = "admin"
)

// CanAccess reports whether a holder of role may act as target. Roles are
// fixed at creation; there is no runtime switching.
func CanAccess(role, target Role) bool {
	if role == RoleAdmin {
		return true
	}
	return role == target
}

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string         `gorm:"not null;column:password" json:"-"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	Role      Role           `gorm:"not null;default:'student';column:role" json:"role"`
	IsActive  bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
