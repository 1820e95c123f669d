package models

import (
	"fmt"
	"strings"
	"time"
)

// VoteType is the value a user holds on a target.
type VoteType string

const (
	VoteNone VoteType = ""
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// ParseVoteType accepts "up"/"down" in any case.
func ParseVoteType(s string) (VoteType, error) {
	switch v := VoteType(strings.ToLower(strings.TrimSpace(s))); v {
	case VoteUp, VoteDown:
		return v, nil
	default:
		return VoteNone, fmt.Errorf("unknown vote type %q", s)
	}
}

// Valid reports whether v can be cast.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Value is the score contribution of a held vote: +1 up, -1 down, 0 none.
func (v VoteType) Value() int {
	switch v {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	default:
		return 0
	}
}

// TargetType says whether a vote is on a post or a comment.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	return t == TargetPost || t == TargetComment
}

// Target identifies something that can receive votes.
type Target struct {
	Type TargetType `json:"target_type"`
	ID   int64      `json:"target_id"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%d", t.Type, t.ID)
}

// Vote model - at most one row per (user, target).
type Vote struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	UserID     int64      `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_user_target" json:"target_type"`
	TargetID   int64      `gorm:"not null;uniqueIndex:idx_votes_user_target;index" json:"target_id"`
	Type       VoteType   `gorm:"type:varchar(8);not null" json:"type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Target returns the vote's target.
func (v Vote) Target() Target {
	return Target{Type: v.TargetType, ID: v.TargetID}
}
