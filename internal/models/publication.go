package models

import (
	"strings"
	"time"
)

// PublicationStatus tracks where a publication is in the review workflow.
type PublicationStatus string

const (
	// StatusPending indicates the publication is awaiting review.
	StatusPending PublicationStatus = "pending"
	// StatusApproved indicates the publication is visible to every reader.
	StatusApproved PublicationStatus = "approved"
	// StatusRejected indicates an editor turned the publication down.
	StatusRejected PublicationStatus = "rejected"
)

// Statuses lists every publication status.
var Statuses = []PublicationStatus{StatusPending, StatusApproved, StatusRejected}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (PublicationStatus, bool) {
	s := PublicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Statuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// StatusChoices returns the statuses as plain strings.
func StatusChoices() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

// Publication is a piece of work submitted by an author for editorial review.
type Publication struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Title         string            `gorm:"type:text;not null" json:"title"`
	Abstract      string            `gorm:"type:text;not null" json:"abstract"`
	Content       string            `gorm:"type:text;not null" json:"content"`
	File          string            `gorm:"size:512" json:"file"`
	FileName      string            `gorm:"size:255" json:"file_name"`
	VideoFile     string            `gorm:"size:512" json:"video_file"`
	VideoFileName string            `gorm:"size:255" json:"video_file_name"`
	AuthorID      uint              `gorm:"not null;index" json:"author_id"`
	Author        *User             `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	EditorID      *uint             `gorm:"index" json:"editor_id"`
	Editor        *User             `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
	Status        PublicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionNote *string           `gorm:"type:text" json:"rejection_note"`
	Categories    []Category        `gorm:"many2many:publication_categories;constraint:OnDelete:CASCADE" json:"categories"`
	Keywords      string            `gorm:"size:500" json:"keywords"`
	// Views counts distinct readers; it only ever grows.
	Views           int64     `gorm:"not null;default:0" json:"views"`
	PublicationDate time.Time `json:"publication_date"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Stats is computed per request and never persisted.
	Stats ViewStats `gorm:"-" json:"-"`
}

// ViewStats aggregates the reaction ledger for one publication.
type ViewStats struct {
	Views         int64 `json:"views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalDislikes int64 `json:"total_dislikes"`
	UserLiked     bool  `json:"user_liked"`
	UserDisliked  bool  `json:"user_disliked"`
}

// CategoryNames returns the names of the attached categories.
func (p *Publication) CategoryNames() []CategoryName {
	out := make([]CategoryName, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, c.Name)
	}
	return out
}

// CategoryLabels returns the display labels of the attached categories.
func (p *Publication) CategoryLabels() []string {
	out := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, c.Name.Label())
	}
	return out
}
