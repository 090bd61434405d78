package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"pubhub/internal/models"
)

const (
	minTitleLen    = 10
	minAbstractLen = 200
	maxAbstractLen = 1000
	minContentLen  = 500
	maxContentLen  = 10000
	maxKeywordsLen = 500
	maxKeywords    = 20

	maxDocumentSize = 10 << 20
	maxVideoSize    = 50 << 20

	msgRequired = "This field is required."
)

var (
	documentExtensions = []string{"pdf", "doc", "docx"}
	videoExtensions    = []string{"mp4", "avi", "mov"}
)

// Attachment is an uploaded file awaiting validation and storage.
type Attachment struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// PublicationInput carries author-editable fields. A nil field was not
// supplied; on update only supplied fields are validated and applied.
type PublicationInput struct {
	Title      *string
	Abstract   *string
	Content    *string
	Keywords   *string
	Categories *[]string
	File       *Attachment
	VideoFile  *Attachment
}

// validatedInput is PublicationInput after normalization.
type validatedInput struct {
	columns    map[string]any
	categories []models.CategoryName
	file       *Attachment
	video      *Attachment
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// validatePublication checks every supplied field and collects all
// violations. With partial=false title, abstract and content are required.
func validatePublication(in PublicationInput, partial bool) (*validatedInput, error) {
	errs := fieldErrors{}
	out := &validatedInput{columns: map[string]any{}}

	text := func(field, label string, value *string, minLen, maxLen int) {
		if value == nil {
			if !partial {
				errs.add(field, msgRequired)
			}
			return
		}
		trimmed := strings.TrimSpace(*value)
		n := utf8.RuneCountInString(trimmed)
		switch {
		case trimmed == "":
			errs.add(field, label+" cannot be empty or just whitespace.")
		case n < minLen:
			errs.add(field, fmt.Sprintf("%s must be at least %d characters long.", label, minLen))
		case maxLen > 0 && n > maxLen:
			errs.add(field, fmt.Sprintf("%s cannot exceed %d characters.", label, maxLen))
		default:
			out.columns[field] = trimmed
		}
	}
	text("title", "Title", in.Title, minTitleLen, 0)
	text("abstract", "Abstract", in.Abstract, minAbstractLen, maxAbstractLen)
	text("content", "Content", in.Content, minContentLen, maxContentLen)

	if in.Keywords != nil {
		normalized, msg := normalizeKeywords(*in.Keywords)
		if msg != "" {
			errs.add("keywords", msg)
		} else {
			out.columns["keywords"] = normalized
		}
	}

	if in.Categories != nil {
		out.categories = []models.CategoryName{}
		for _, raw := range *in.Categories {
			name := models.CategoryName(strings.ToLower(strings.TrimSpace(raw)))
			if !name.Valid() {
				errs.add("categories", fmt.Sprintf("%q is not a valid choice.", raw))
				continue
			}
			out.categories = append(out.categories, name)
		}
	}

	if in.File != nil {
		if msg := checkAttachment(in.File, maxDocumentSize, documentExtensions,
			"File size cannot exceed 10MB.", "Only PDF and Word documents are allowed."); msg != "" {
			errs.add("file", msg)
		}
		out.file = in.File
	}
	if in.VideoFile != nil {
		if msg := checkAttachment(in.VideoFile, maxVideoSize, videoExtensions,
			"Video file size cannot exceed 50MB.", "Only MP4, AVI, and MOV video formats are allowed."); msg != "" {
			errs.add("video_file", msg)
		}
		out.video = in.VideoFile
	}

	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}
	return out, nil
}

// normalizeKeywords splits on commas, trims tokens, drops empty ones and
// re-joins with commas.
func normalizeKeywords(raw string) (string, string) {
	if utf8.RuneCountInString(raw) > maxKeywordsLen {
		return "", fmt.Sprintf("Keywords cannot exceed %d characters.", maxKeywordsLen)
	}
	tokens := splitKeywords(raw)
	if len(tokens) > maxKeywords {
		return "", fmt.Sprintf("Cannot have more than %d keywords.", maxKeywords)
	}
	return strings.Join(tokens, ","), ""
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func checkAttachment(a *Attachment, maxSize int64, allowed []string, sizeMsg, extMsg string) string {
	if a.Size > maxSize {
		return sizeMsg
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(a.Filename)), ".")
	for _, candidate := range allowed {
		if ext == candidate {
			return ""
		}
	}
	return extMsg
}

// parseStatus validates the status field of an editorial decision.
func parseStatus(raw string) (models.PublicationStatus, error) {
	status, ok := models.ParseStatus(raw)
	if !ok {
		err := models.NewFieldValidationError(map[string]string{
			"status": fmt.Sprintf("%q is not a valid choice.", raw),
		})
		err.Allowed = models.StatusChoices()
		return "", err
	}
	return status, nil
}
