package models

import "time"

// User is an account identified by its email address.
type User struct {
	ID          uint      `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Email       string `gorm:"size:255;uniqueIndex;not null"`
	Name        string `gorm:"size:255"`
	Password    string `gorm:"not null" json:"-"` // Don't expose password hash
	IsActive    bool   `gorm:"not null"`
	IsStaff     bool   `gorm:"not null;default:false"`
	IsSuperuser bool   `gorm:"not null;default:false"`

	Recipes     []Recipe     `gorm:"constraint:OnDelete:CASCADE;"`
	Tags        []Tag        `gorm:"constraint:OnDelete:CASCADE;"`
	Ingredients []Ingredient `gorm:"constraint:OnDelete:CASCADE;"`
}

func (u User) String() string {
	return u.Email
}

// Token is the stored opaque credential of a user. A user holds at most one.
type Token struct {
	Key       string `gorm:"primaryKey;size:40"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}
