package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a registered account. Password holds a bcrypt hash and is never serialized.
type User struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	LoginName   string    `gorm:"uniqueIndex;not null" json:"login_name" bson:"login_name"`
	Password    string    `gorm:"not null" json:"-" bson:"password"`
	FirstName   string    `gorm:"not null" json:"first_name" bson:"first_name"`
	LastName    string    `gorm:"not null" json:"last_name" bson:"last_name"`
	Location    string    `json:"location" bson:"location"`
	Description string    `gorm:"type:text" json:"description" bson:"description"`
	Occupation  string    `json:"occupation" bson:"occupation"`
	CreatedAt   time.Time `json:"-" bson:"created_at"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// FullName joins first and last name the way owner names are displayed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Summary returns the public name card of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// Profile returns the publicly visible profile of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Location:    u.Location,
		Description: u.Description,
		Occupation:  u.Occupation,
	}
}

// UserSummary is the name card embedded in comment views and user lists.
// An unresolved author serializes as an empty object.
type UserSummary struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// UserProfile is the response of GET /user/:id.
type UserProfile struct {
	ID          string `json:"_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Occupation  string `json:"occupation"`
}
