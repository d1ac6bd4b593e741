package models

import "time"

// User is one Google account that has signed in. Conversations are never stored.
type User struct {
	ID          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Subject     string    `json:"subject" gorm:"type:varchar(255);not null;uniqueIndex"`
	Email       string    `json:"email" gorm:"type:varchar(255);not null;default:''"`
	FullName    *string   `json:"full_name,omitempty" gorm:"type:varchar(255)"`
	ImageURL    *string   `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	LoginCount  int       `json:"login_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	LastLoginAt time.Time `json:"last_login_at"`
}
