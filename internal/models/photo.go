package models

import (
	"time"

	"gorm.io/gorm"
)

// Photo is an uploaded image together with its comment thread and the set of
// users mentioned on it.
type Photo struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	UserID   string    `gorm:"not null;index;type:varchar(36)" json:"user_id" bson:"user_id"`
	FileName string    `gorm:"not null" json:"file_name" bson:"file_name"`
	DateTime time.Time `gorm:"not null;index" json:"date_time" bson:"date_time"`
	Comments []Comment `gorm:"foreignKey:PhotoID;constraint:OnDelete:CASCADE" json:"comments" bson:"comments"`
	Mentions IDList    `gorm:"not null" json:"mentions" bson:"mentions"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (p *Photo) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return nil
}

// RecomputeMentions derives the photo-level mention set from the comments it still holds.
func (p *Photo) RecomputeMentions() IDList {
	out := IDList{}
	for _, c := range p.Comments {
		out = UnionIDs(out, c.Mentions)
	}
	return out
}

// LatestCommentBy returns the most recent comment authored by userID, or nil.
// Equal timestamps resolve to the later entry in thread order.
func (p *Photo) LatestCommentBy(userID string) *Comment {
	var latest *Comment
	for i := range p.Comments {
		c := &p.Comments[i]
		if c.UserID != userID {
			continue
		}
		if latest == nil || !c.DateTime.Before(latest.DateTime) {
			latest = c
		}
	}
	return latest
}

// WithoutCommentsBy returns the comments not authored by userID.
func (p *Photo) WithoutCommentsBy(userID string) []Comment {
	kept := make([]Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	return kept
}

// Comment is embedded in a photo's thread. Mentions records the users this comment mentions.
type Comment struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	PhotoID  string    `gorm:"not null;index;type:varchar(36)" json:"-" bson:"-"`
	UserID   string    `gorm:"not null;index;type:varchar(36)" json:"user_id" bson:"user_id"`
	Text     string    `gorm:"type:text;not null" json:"comment" bson:"comment"`
	DateTime time.Time `gorm:"not null" json:"date_time" bson:"date_time"`
	Mentions IDList    `gorm:"not null" json:"mentions" bson:"mentions"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// Like records that a user likes a photo. At most one exists per (user, photo).
type Like struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id" bson:"user_id"`
	PhotoID   string    `gorm:"primaryKey;type:varchar(36);index" json:"photo_id" bson:"photo_id"`
	CreatedAt time.Time `json:"-" bson:"created_at"`
}

// SchemaInfo is the static record behind /test/info.
type SchemaInfo struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"_id" bson:"_id"`
	Version      string    `gorm:"not null" json:"version" bson:"version"`
	LoadDateTime time.Time `json:"load_date_time" bson:"load_date_time"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (s *SchemaInfo) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return nil
}
