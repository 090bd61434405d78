package server

import (
	"pubhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications. Every notification is
// returned unless the client asks for a page with ?limit=.
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var page Pagination
	if c.Query("limit") != "" {
		page = parsePagination(c, defaultPageSize)
	}

	list, err := s.notifications.List(ctx, caller(c), page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(list)
}

// ListUnreadNotifications handles GET /api/notifications/unread
func (s *Server) ListUnreadNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.ListUnread(c.UserContext(), caller(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationRead handles PATCH /api/notifications/:id
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		IsRead *bool `json:"is_read"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	isRead := true
	if req.IsRead != nil {
		isRead = *req.IsRead
	}

	notification, err := s.notifications.MarkRead(ctx, caller(c), id, isRead)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(notification)
}

// MarkAllNotificationsRead handles PATCH /api/notifications/mark-all-read
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	result, err := s.notifications.MarkAllRead(c.UserContext(), caller(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}
