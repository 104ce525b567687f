package models

import "time"

// JoinRequestStatus represents the state of a request to join a match
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is an opponent's ask to take the open seat of a match
type JoinRequest struct {
	ID          int64             `db:"id" json:"id"`
	MatchID     int64             `db:"match_id" json:"matchId"`
	RequesterID int64             `db:"requester_id" json:"requesterId"`
	Status      JoinRequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updatedAt"`
}
