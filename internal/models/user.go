package models

import (
	"time"
)

// User roles
const (
	RoleVisitor  = "visitor"
	RoleHost     = "host"
	RoleSecurity = "security"
	RoleAdmin    = "admin"
)

// User represents an authenticated principal (host, security or admin)
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type User struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	Name          string     `gorm:"not null" json:"name"`
	Role          string     `gorm:"not null;index;default:'host'" json:"role"`
	Department    string     `json:"department,omitempty"`
	ContactNumber string     `json:"contactNumber,omitempty"`
	PhotoURL      string     `json:"photoUrl,omitempty"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
