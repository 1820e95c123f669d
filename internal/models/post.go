package models

import "time"

type Post struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Content   string     `gorm:"not null" json:"content"`
	AuthorID  int64      `gorm:"not null;index" json:"author_id"`
	Author    *User      `gorm:"-" json:"author,omitempty"`
	Score     int        `gorm:"not null;default:0" json:"score"`
	Tags      []string   `gorm:"serializer:json" json:"tags"`
	Comments  []*Comment `gorm:"-" json:"comments,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CreatePostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}
