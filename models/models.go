package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Email        string         `gorm:"size:255;not null;unique" json:"email"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Posts        []Post         `json:"posts,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Generations  []Generation   `json:"generations,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
}

type Post struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      *User          `json:"user,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Generation links an uploaded image to the prompt text the vision model
// produced for it. Rows are written once and never updated.
type Generation struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	UUID             string         `gorm:"type:uuid;uniqueIndex" json:"uuid"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	User             *User          `json:"user,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ImageURL         string         `gorm:"not null" json:"image_url"`
	StorageKey       string         `gorm:"not null" json:"-"`
	GeneratedPrompt  string         `gorm:"type:text;not null" json:"generated_prompt"`
	OriginalFilename string         `gorm:"size:255;not null" json:"original_filename"`
	FileSize         int64          `gorm:"not null" json:"file_size"`
	MimeType         string         `gorm:"size:127;not null" json:"mime_type"`
}

// PasswordReset holds the sha256 hash of an issued reset token. The row is
// deleted when the token is consumed; ExpiresAt bounds its lifetime.
type PasswordReset struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Email     string    `gorm:"size:255;not null;index" json:"-"`
	TokenHash string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"-"`
}
