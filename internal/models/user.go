package models

import "time"

type User struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"unique;not null" json:"username"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	Avatar       string         `json:"avatar,omitempty"`
	TotalScore   int            `gorm:"not null;default:0" json:"total_score"`
	Rank         int            `gorm:"not null;default:0" json:"rank"`
	PostsCount   int            `gorm:"not null;default:0" json:"posts_count"`
	Achievements []*Achievement `gorm:"-" json:"achievements,omitempty"`
	JoinedAt     time.Time      `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Achievement is awarded once per user per name.
type Achievement struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;uniqueIndex:idx_achievements_user_name" json:"-"`
	Name        string    `gorm:"not null;uniqueIndex:idx_achievements_user_name" json:"name"`
	Description string    `gorm:"not null" json:"description"`
	Icon        string    `gorm:"not null" json:"icon"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message"`
}

// LeaderboardEntry is one row of the user ranking.
type LeaderboardEntry struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar,omitempty"`
	Score      int    `json:"score"`
	Rank       int    `json:"rank"`
	PostsCount int    `json:"posts_count"`
}

// DailyStats summarises the current day.
type DailyStats struct {
	TopUsers   []LeaderboardEntry `json:"top_users"`
	TopPosts   []*Post            `json:"top_posts"`
	TotalPosts int64              `json:"total_posts"`
	TotalVotes int64              `json:"total_votes"`
}
