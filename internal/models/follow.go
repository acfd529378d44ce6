package models

import "time"

// FollowEdge is a directed (follower, followed) pair, unique per pair.
type FollowEdge struct {
	FollowerID string    `db:"follower_id" json:"follower_id"`
	FollowedID string    `db:"followed_id" json:"followed_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
