package models

import "time"

// FriendRequestStatus defines the state of a friend request.
type FriendRequestStatus string

const (
	// RequestPending means a friend request has been sent but not yet answered.
	RequestPending FriendRequestStatus = "pending"

	// RequestAccepted means the request was accepted and the users are now friends.
	RequestAccepted FriendRequestStatus = "accepted"

	// RequestRejected is set inside the reject transaction just before the row is deleted.
	RequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed proposal from Sender to Receiver.
// At most one row exists per ordered (sender, receiver) pair.
type FriendRequest struct {
	ID         uint                `gorm:"primaryKey"`
	SenderID   uint                `gorm:"not null;uniqueIndex:idx_request_pair"`
	ReceiverID uint                `gorm:"not null;uniqueIndex:idx_request_pair;index:idx_request_receiver_status"`
	Status     FriendRequestStatus `gorm:"type:varchar(8);not null;default:'pending';index:idx_request_receiver_status"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Sender   Profile `gorm:"foreignKey:SenderID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Receiver Profile `gorm:"foreignKey:ReceiverID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
