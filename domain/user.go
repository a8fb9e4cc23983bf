package domain

import (
	"time"

	"gorm.io/gorm"
)

const RoleAdmin = "admin"

type User struct {
	ID        uint       `gorm:"primaryKey"`
	Username  string     `gorm:"column:username;unique;not null"`
	Role      string     `gorm:"column:role;default:viewer"`
	LastLogin *time.Time `gorm:"column:last_login;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
