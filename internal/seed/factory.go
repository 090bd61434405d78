// Package seed creates demo data for local development. It is not used by
// the server at runtime.
package seed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pubhub/internal/models"
	"pubhub/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory generates users and publication submissions that pass validation.
type Factory struct {
	faker  *gofakeit.Faker
	nextID uint
}

// NewFactory seeds the generator. A zero seed picks a random one.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(seed), nextID: 1000}
}

// Identity builds a fresh identity with role. IDs are allocated from 1000
// upwards so they do not collide with real accounts in a dev database.
func (f *Factory) Identity(role models.Role) models.Identity {
	f.nextID++
	first, last := f.faker.FirstName(), f.faker.LastName()
	return models.Identity{
		UserID:   f.nextID,
		Role:     role,
		FullName: first + " " + last,
		Email:    strings.ToLower(fmt.Sprintf("%s.%s%d@example.com", first, last, f.nextID)),
	}
}

// Submission builds a publication payload within every field limit.
func (f *Factory) Submission() service.PublicationInput {
	title := f.text(func() string { return f.faker.Sentence(6) }, 20, 120)
	abstract := f.text(func() string { return f.faker.Paragraph(1, 3, 12, " ") }, 250, 900)
	content := f.text(func() string { return f.faker.Paragraph(3, 5, 14, "\n\n") }, 800, 6000)

	keywords := make([]string, f.faker.Number(1, 6))
	for i := range keywords {
		keywords[i] = f.faker.Word()
	}
	joined := strings.Join(keywords, ", ")

	categories := f.Categories(f.faker.Number(0, 3))
	return service.PublicationInput{
		Title:      &title,
		Abstract:   &abstract,
		Content:    &content,
		Keywords:   &joined,
		Categories: &categories,
	}
}

// Categories picks n distinct catalog entries.
func (f *Factory) Categories(n int) []string {
	choices := models.CategoryChoices()
	f.faker.ShuffleStrings(choices)
	if n > len(choices) {
		n = len(choices)
	}
	return choices[:n]
}

// Status picks a review outcome; roughly half of the submissions end up approved.
func (f *Factory) Status() models.PublicationStatus {
	switch n := f.faker.Number(1, 10); {
	case n <= 5:
		return models.StatusApproved
	case n <= 8:
		return models.StatusPending
	default:
		return models.StatusRejected
	}
}

// RejectionNote returns a short reviewer remark.
func (f *Factory) RejectionNote() string {
	return f.faker.Sentence(8)
}

// Reaction picks like three times out of four.
func (f *Factory) Reaction() models.ReactionAction {
	if f.faker.Number(1, 4) == 4 {
		return models.ReactionDislike
	}
	return models.ReactionLike
}

// Chance reports true with probability pct/100.
func (f *Factory) Chance(pct int) bool {
	return f.faker.Number(1, 100) <= pct
}

// text grows gen output until it holds at least minLen runes, then cuts it
// at a word boundary below maxLen.
func (f *Factory) text(gen func() string, minLen, maxLen int) string {
	var b strings.Builder
	for utf8.RuneCountInString(b.String()) < minLen {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(gen())
	}
	out := b.String()
	if utf8.RuneCountInString(out) <= maxLen {
		return strings.TrimSpace(out)
	}
	runes := []rune(out)[:maxLen]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i >= minLen {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
