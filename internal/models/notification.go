package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNotificationMessageLen bounds a notification message, in characters.
const MaxNotificationMessageLen = 1000

// Notification is a message delivered to one user about a publication.
// Only IsRead changes after creation.
type Notification struct {
	ID                   uint         `gorm:"primaryKey" json:"id"`
	UserID               uint         `gorm:"not null;index" json:"user_id"`
	User                 *User        `gorm:"foreignKey:UserID" json:"-"`
	Message              string       `gorm:"type:text;not null" json:"message"`
	RelatedPublicationID uint         `gorm:"not null;index" json:"related_publication"`
	RelatedPublication   *Publication `gorm:"foreignKey:RelatedPublicationID;constraint:OnDelete:CASCADE" json:"-"`
	IsRead               bool         `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt            time.Time    `gorm:"index" json:"created_at"`
}

// ValidateNotificationMessage enforces the message constraints.
func ValidateNotificationMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return NewFieldValidationError(map[string]string{
			"message": "Message cannot be empty or just whitespace.",
		})
	}
	if utf8.RuneCountInString(message) > MaxNotificationMessageLen {
		return NewFieldValidationError(map[string]string{
			"message": "Message cannot exceed 1000 characters.",
		})
	}
	return nil
}
