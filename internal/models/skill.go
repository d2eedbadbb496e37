package models

import "gorm.io/gorm"

// Skill is a tag a student can attach to their profile (e.g., "Go", "Calculus").
type Skill struct {
	gorm.Model
	Name string `gorm:"size:100;unique;not null"`
}
