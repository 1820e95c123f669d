package models

import "time"

// Comment is a node of a post's discussion. ParentCommentID is a lookup key
// only; a comment owns its Replies.
type Comment struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	PostID          int64      `gorm:"not null;index" json:"post_id"`
	UserID          int64      `gorm:"not null" json:"user_id"`
	Content         string     `gorm:"not null" json:"content"`
	Score           int        `gorm:"not null;default:0" json:"score"`
	ParentCommentID *int64     `gorm:"index" json:"parent_comment_id,omitempty"`
	Replies         []*Comment `gorm:"-" json:"replies"`
	CreatedAt       time.Time  `json:"created_at"`
}

type CreateCommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}
