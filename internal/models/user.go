package models

import "gorm.io/gorm"

// RoleAdmin marks users allowed into the moderation routes.
const RoleAdmin = "admin"

// User represents an identity in the system.
type User struct {
	gorm.Model
	Nickname     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
}
