package server

import (
	"log/slog"

	"pubhub/internal/featureflags"
	"pubhub/internal/middleware"
	"pubhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// requireRealtime rejects stream requests when push is unavailable for the
// caller or the request is not a WebSocket upgrade.
func (s *Server) requireRealtime(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	if s.hub == nil || !s.featureFlags.EnabledOr(featureflags.RealtimeNotifications, userID, true) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Realtime notifications are unavailable",
		})
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(models.ErrorResponse{
			Error: "WebSocket upgrade required",
		})
	}
	return c.Next()
}

// NotificationsWebSocket streams newly created notifications to the caller.
// Messages are only pushed; anything the client sends is discarded.
func (s *Server) NotificationsWebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("notification stream rejected",
				slog.Any("user_id", userID),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("notification stream opened", slog.Any("user_id", userID))
		go client.WritePump()
		client.ReadPump()
	})
}
