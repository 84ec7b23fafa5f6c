package models

import "time"

// PhotoView is one entry of GET /photosOfUser/:id.
type PhotoView struct {
	ID        string        `json:"_id"`
	UserID    string        `json:"user_id"`
	FileName  string        `json:"file_name"`
	DateTime  time.Time     `json:"date_time"`
	Mentions  []string      `json:"mentions"`
	LikeCount int           `json:"like_count"`
	Likes     []Like        `json:"likes"`
	Comments  []CommentView `json:"comments"`
}

// CommentView is a comment with its author resolved to a name card.
type CommentView struct {
	ID       string      `json:"_id"`
	Text     string      `json:"comment"`
	DateTime time.Time   `json:"date_time"`
	Mentions []string    `json:"mentions"`
	User     UserSummary `json:"user"`
}

// RecentPhoto is the newest photo of a user.
type RecentPhoto struct {
	ID       string    `json:"_id"`
	FileName string    `json:"file_name"`
	DateTime time.Time `json:"date_time"`
	Likes    []Like    `json:"likes"`
}

// MostCommentedPhoto is the photo of a user with the longest comment thread.
type MostCommentedPhoto struct {
	ID           string `json:"_id"`
	FileName     string `json:"file_name"`
	CommentCount int    `json:"commentCount"`
	Likes        []Like `json:"likes"`
}

// UserDetail is the response of GET /user/details/:id. Both fields are null
// when the user has no photos.
type UserDetail struct {
	RecentPhoto        *RecentPhoto        `json:"recentPhoto"`
	MostCommentedPhoto *MostCommentedPhoto `json:"mostCommentedPhoto"`
}

// MentionView is one photo in which a user is mentioned.
type MentionView struct {
	PhotoID   string `json:"photo_id"`
	FileName  string `json:"file_name"`
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// LikeState reports whether the caller likes a photo after a toggle or lookup.
type LikeState struct {
	PhotoID   string `json:"photo_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
	Likes     []Like `json:"likes"`
}

// Counts is the response of GET /test/counts.
type Counts struct {
	User       int64 `json:"user"`
	Photo      int64 `json:"photo"`
	SchemaInfo int64 `json:"schemaInfo"`
}

// Event is a realtime notification delivered to a single user.
type Event struct {
	Type      string    `json:"type"`
	PhotoID   string    `json:"photo_id"`
	ActorID   string    `json:"actor_id"`
	CommentID string    `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event types.
const (
	EventMention = "mention"
	EventComment = "comment"
	EventLike    = "like"
)
