package models

import "time"

// Friendship is one direction of a friend edge. Every edge is stored twice,
// (a, b) and (b, a), so that a profile's friend set is a single index scan.
// The composite primary key makes a duplicate edge impossible.
type Friendship struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false;check:chk_friendship_not_self,user_id <> friend_id"`
	FriendID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time

	User   Profile `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Friend Profile `gorm:"foreignKey:FriendID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
