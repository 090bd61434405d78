package server

import (
	"time"

	"pubhub/internal/models"
)

// PublicationResponse is the wire shape of a publication.
type PublicationResponse struct {
	ID              uint                     `json:"id"`
	Title           string                   `json:"title"`
	Abstract        string                   `json:"abstract"`
	Content         string                   `json:"content"`
	File            *string                  `json:"file"`
	VideoFile       *string                  `json:"video_file"`
	Author          string                   `json:"author"`
	AuthorID        uint                     `json:"author_id"`
	Editor          *string                  `json:"editor"`
	Categories      []models.CategoryName    `json:"categories"`
	CategoryLabels  []string                 `json:"category_labels"`
	Keywords        string                   `json:"keywords"`
	Views           int64                    `json:"views"`
	ViewStats       models.ViewStats         `json:"view_stats"`
	TotalLikes      int64                    `json:"total_likes"`
	TotalDislikes   int64                    `json:"total_dislikes"`
	Status          models.PublicationStatus `json:"status"`
	RejectionNote   *string                  `json:"rejection_note"`
	PublicationDate time.Time                `json:"publication_date"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func (s *Server) presentPublication(p *models.Publication) PublicationResponse {
	resp := PublicationResponse{
		ID:              p.ID,
		Title:           p.Title,
		Abstract:        p.Abstract,
		Content:         p.Content,
		File:            s.blobURL(p.File),
		VideoFile:       s.blobURL(p.VideoFile),
		Author:          p.Author.DisplayName(),
		AuthorID:        p.AuthorID,
		Categories:      p.CategoryNames(),
		CategoryLabels:  p.CategoryLabels(),
		Keywords:        p.Keywords,
		Views:           p.Views,
		ViewStats:       p.Stats,
		TotalLikes:      p.Stats.TotalLikes,
		TotalDislikes:   p.Stats.TotalDislikes,
		Status:          p.Status,
		RejectionNote:   p.RejectionNote,
		PublicationDate: p.PublicationDate,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	resp.ViewStats.Views = p.Views
	if p.Editor != nil {
		name := p.Editor.DisplayName()
		resp.Editor = &name
	}
	return resp
}

func (s *Server) presentPublications(list []*models.Publication) []PublicationResponse {
	out := make([]PublicationResponse, 0, len(list))
	for _, p := range list {
		out = append(out, s.presentPublication(p))
	}
	return out
}

// blobURL resolves a stored reference to its public address.
func (s *Server) blobURL(ref string) *string {
	if ref == "" {
		return nil
	}
	url := ref
	if s.blobs != nil {
		url = s.blobs.URL(ref)
	}
	return &url
}
