package models

import "time"

// Profile is the social-graph identity record of a user.
// Its primary key is the owning user's ID.
type Profile struct {
	UserID    uint    `gorm:"primaryKey;autoIncrement:false"`
	Bio       string  `gorm:"type:text"`
	AvatarURL *string `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Deleting the user removes the profile and, through it, everything the profile owns.
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
