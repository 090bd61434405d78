package models

import "time"

// ReactionAction is a reader's verdict on a publication.
type ReactionAction string

const (
	ReactionLike    ReactionAction = "like"
	ReactionDislike ReactionAction = "dislike"
)

// ReactionChoices lists the accepted reaction actions.
func ReactionChoices() []string {
	return []string{string(ReactionLike), string(ReactionDislike)}
}

// ParseReactionAction validates a raw action value.
func ParseReactionAction(raw string) (ReactionAction, bool) {
	switch ReactionAction(raw) {
	case ReactionLike:
		return ReactionLike, true
	case ReactionDislike:
		return ReactionDislike, true
	}
	return "", false
}

// ViewRecord is the per-reader ledger entry of a publication.
// The combination of PublicationID and UserID must be unique; its existence
// alone means the reader's view has been counted.
type ViewRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PublicationID uint      `gorm:"not null;uniqueIndex:idx_publication_user" json:"publication"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_publication_user;index" json:"user"`
	UserLiked     bool      `gorm:"not null;default:false" json:"user_liked"`
	UserDisliked  bool      `gorm:"not null;default:false" json:"user_disliked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName keeps the ledger apart from the publications.views counter column.
func (ViewRecord) TableName() string {
	return "publication_views"
}

// ReactionTotals is the on-demand aggregate of a publication's ledger.
type ReactionTotals struct {
	PublicationID uint  `json:"publication_id"`
	Likes         int64 `json:"total_likes"`
	Dislikes      int64 `json:"total_dislikes"`
}
