package service

import (
	"fmt"
	"time"
	"unicode/utf8"

	"pubhub/internal/models"
)

// West Africa Time has no daylight saving.
var wat = time.FixedZone("WAT", 60*60)

const stampLayout = "03:04 PM MST, January 02, 2006"

func formatStamp(t time.Time) string {
	return t.In(wat).Format(stampLayout)
}

func authorStatusMessage(title string, status models.PublicationStatus, note *string, at time.Time) string {
	msg := fmt.Sprintf("Your publication '%s' status changed to '%s' at %s.", title, status, formatStamp(at))
	if status == models.StatusRejected && note != nil {
		msg += " Reason: " + *note
	}
	return clipMessage(msg)
}

func editorStatusMessage(title string, status models.PublicationStatus, actor string, at time.Time) string {
	return clipMessage(fmt.Sprintf("Publication '%s' status updated to '%s' by %s at %s.", title, status, actor, formatStamp(at)))
}

// clipMessage keeps generated text within the notification length limit.
func clipMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= models.MaxNotificationMessageLen {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:models.MaxNotificationMessageLen-1]) + "…"
}

func displayName(identity models.Identity) string {
	switch {
	case identity.FullName != "":
		return identity.FullName
	case identity.Email != "":
		return identity.Email
	default:
		return fmt.Sprintf("editor #%d", identity.UserID)
	}
}
