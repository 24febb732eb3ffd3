package model

import "time"

// swagger:model User
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	CurrentLevel Level     `gorm:"type:varchar(2);not null;default:'N3'" json:"currentLevel"`
	PasswordHash string    `gorm:"size:100" json:"-"` // 仅 local 身份提供者使用
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Profile is the part of a user shown on the dashboard.
type Profile struct {
	Name         string `json:"name"`
	CurrentLevel Level  `json:"currentLevel"`
}

func (u *User) Profile() *Profile {
	return &Profile{Name: u.Name, CurrentLevel: u.CurrentLevel}
}
