package models

import "time"

// ReactionKind is the kind of reaction a user leaves on a post.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionHaha  ReactionKind = "haha"
	ReactionAngry ReactionKind = "angry"
	ReactionSad   ReactionKind = "sad"
)

// ReactionKinds lists every valid kind in display order.
var ReactionKinds = []ReactionKind{ReactionLike, ReactionLove, ReactionHaha, ReactionAngry, ReactionSad}

// Valid reports whether k is one of the known reaction kinds.
func (k ReactionKind) Valid() bool {
	for _, known := range ReactionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Reaction represents a user's reaction on a post.
// The combination of PostID and UserID must be unique; re-reacting replaces the kind.
type Reaction struct {
	ID        uint         `gorm:"primaryKey"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reaction_post_user"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reaction_post_user"`
	Kind      ReactionKind `gorm:"type:varchar(10);not null;default:'like'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Post Post    `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User Profile `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
