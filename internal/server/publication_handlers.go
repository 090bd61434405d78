package server

import (
	"io"
	"mime/multipart"
	"strings"

	"pubhub/internal/models"
	"pubhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// publicationRequest accepts both JSON bodies and multipart forms. Pointer
// fields distinguish absent keys from empty values for partial updates.
type publicationRequest struct {
	Title         *string   `json:"title"`
	Abstract      *string   `json:"abstract"`
	Content       *string   `json:"content"`
	Keywords      *string   `json:"keywords"`
	Categories    *[]string `json:"categories"`
	Status        *string   `json:"status"`
	RejectionNote *string   `json:"rejection_note"`

	file      *multipart.FileHeader
	videoFile *multipart.FileHeader
}

func (r *publicationRequest) input() service.PublicationInput {
	return service.PublicationInput{
		Title:      r.Title,
		Abstract:   r.Abstract,
		Content:    r.Content,
		Keywords:   r.Keywords,
		Categories: r.Categories,
		File:       attachmentFrom(r.file),
		VideoFile:  attachmentFrom(r.videoFile),
	}
}

func attachmentFrom(fh *multipart.FileHeader) *service.Attachment {
	if fh == nil {
		return nil
	}
	return &service.Attachment{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// parsePublicationRequest reads the body as multipart when the client sent a
// form, otherwise as JSON.
func parsePublicationRequest(c *fiber.Ctx) (*publicationRequest, error) {
	req := &publicationRequest{}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if len(c.Body()) == 0 {
			return req, nil
		}
		if err := c.BodyParser(req); err != nil {
			return nil, models.NewValidationError("Invalid request body")
		}
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	value := func(key string) *string {
		values, ok := form.Value[key]
		if !ok || len(values) == 0 {
			return nil
		}
		v := values[0]
		return &v
	}
	req.Title = value("title")
	req.Abstract = value("abstract")
	req.Content = value("content")
	req.Keywords = value("keywords")
	req.Status = value("status")
	req.RejectionNote = value("rejection_note")
	if values, ok := form.Value["categories"]; ok {
		categories := make([]string, 0, len(values))
		for _, v := range values {
			// Forms may send either repeated fields or one comma-separated value.
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					categories = append(categories, name)
				}
			}
		}
		req.Categories = &categories
	}
	if files := form.File["file"]; len(files) > 0 {
		req.file = files[0]
	}
	if files := form.File["video_file"]; len(files) > 0 {
		req.videoFile = files[0]
	}
	return req, nil
}

// ListPublications handles GET /api/publications
func (s *Server) ListPublications(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page := parsePagination(c, defaultPageSize)

	list, err := s.publications.List(ctx, caller(c), service.ListPublicationsInput{
		Keywords: c.Query("keywords"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(s.presentPublications(list))
}

// CreatePublication handles POST /api/publications
func (s *Server) CreatePublication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	req, err := parsePublicationRequest(c)
	if err != nil {
		return models.Respond(c, err)
	}

	publication, err := s.publications.Create(ctx, caller(c), req.input())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.presentPublication(publication))
}

// GetPublication handles GET /api/publications/:id
func (s *Server) GetPublication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	publication, err := s.publications.Get(ctx, caller(c), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(s.presentPublication(publication))
}

// UpdatePublication handles PATCH and PUT /api/publications/:id. A status in
// the body makes it a review decision, anything else is a content edit.
func (s *Server) UpdatePublication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := parsePublicationRequest(c)
	if err != nil {
		return models.Respond(c, err)
	}

	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		result, err := s.publications.ChangeStatus(ctx, caller(c), id, service.StatusChangeInput{
			Status:        *req.Status,
			RejectionNote: req.RejectionNote,
		})
		if err != nil {
			return models.Respond(c, err)
		}
		return c.JSON(fiber.Map{
			"message":        "Publication status updated successfully.",
			"rejection_note": result.RejectionNote,
		})
	}

	if err := s.publications.UpdateContent(ctx, caller(c), id, req.input()); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Publication updated successfully."})
}

// DeletePublication handles DELETE /api/publications/:id
func (s *Server) DeletePublication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.publications.Destroy(ctx, caller(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReactToPublication handles PATCH /api/publications/:id/reactions
func (s *Server) ReactToPublication(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Action string `json:"action" form:"action"`
	}
	// A missing body leaves Action blank so React reports the allowed choices.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	result, err := s.reactions.React(ctx, caller(c), id, req.Action)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}
