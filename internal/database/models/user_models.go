package models

import "time"

const (
	RoleAgent   = "agent"
	RoleManager = "manager"
)

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	Name      string `gorm:"not null" json:"name"`
	Phone     string `json:"phone"`
	Role      string `gorm:"not null;default:'agent'" json:"role"`
	TeamID    *int64 `gorm:"index" json:"team_id,omitempty"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Team struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	ManagerID int64      `gorm:"index;not null" json:"manager_id"`
	CreatedAt *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
