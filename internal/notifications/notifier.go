// Package notifications delivers newly created notifications to connected
// clients in real time.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"pubhub/internal/middleware"
	"pubhub/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix  = "notifications:user:"
	userChannelPattern = userChannelPrefix + "*"
)

// EventNotification is the envelope type for a freshly created notification.
const EventNotification = "notification"

// Event is the JSON envelope pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NotificationPayload is the realtime view of a notification.
type NotificationPayload struct {
	ID                 uint      `json:"id"`
	Message            string    `json:"message"`
	RelatedPublication uint      `json:"related_publication"`
	IsRead             bool      `json:"is_read"`
	CreatedAt          time.Time `json:"created_at"`
}

// Notifier publishes notifications into per-user Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a channel built by UserChannel.
func ParseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishNotification wraps n in an Event and sends it to its recipient.
func (n *Notifier) PublishNotification(ctx context.Context, notification *models.Notification) error {
	body, err := json.Marshal(Event{
		Type: EventNotification,
		Payload: NotificationPayload{
			ID:                 notification.ID,
			Message:            notification.Message,
			RelatedPublication: notification.RelatedPublicationID,
			IsRead:             notification.IsRead,
			CreatedAt:          notification.CreatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return n.PublishUser(ctx, notification.UserID, string(body))
}

// StartPatternSubscriber subscribes to every user channel and calls
// onMessage for each message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				dispatch(msg.Channel, msg.Payload, onMessage)
			}
		}
	}()

	return nil
}

func dispatch(channel, payload string, onMessage func(channel, payload string)) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("panic in notification subscriber",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	onMessage(channel, payload)
}
