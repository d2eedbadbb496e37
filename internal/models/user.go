package models

import "gorm.io/gorm"

// User represents a student account.
type User struct {
	gorm.Model
	Name           string   `gorm:"size:255;not null"`
	Username       string   `gorm:"size:255;unique;not null"`
	Email          string   `gorm:"size:255;unique;not null"`
	PasswordHash   string   `gorm:"size:255;not null"`
	Role           string   `gorm:"size:50;not null;default:'user';index"`
	ProfilePicture string   `gorm:"size:512"`
	School         string   `gorm:"size:255;index"`
	Program        string   `gorm:"size:255"`
	StudentYear    int
	Bio            string
	Skills         []*Skill `gorm:"many2many:user_skills;"`

	// Placeholder accounts are hidden from search.
	IsTemporary bool `gorm:"not null;default:false;index"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
