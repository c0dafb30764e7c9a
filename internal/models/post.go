package models

import "time"

// Post is owned by exactly one author profile. Visibility is derived, not stored.
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	AuthorID  uint      `gorm:"not null;index:idx_post_author_created,priority:1"`
	Content   string    `gorm:"type:text;not null"`
	ImageURL  *string   `gorm:"size:512"`
	CreatedAt time.Time `gorm:"index:idx_post_author_created,priority:2,sort:desc"`
	UpdatedAt time.Time

	Author Profile `gorm:"foreignKey:AuthorID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Comment is attached to one post and authored by one profile.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;index"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Post Post    `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User Profile `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
