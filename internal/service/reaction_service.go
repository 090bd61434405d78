package service

import (
	"context"
	"log/slog"

	"pubhub/internal/middleware"
	"pubhub/internal/models"
	"pubhub/internal/observability"
	"pubhub/internal/policy"
	"pubhub/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const invalidReactionMessage = "Invalid action. Use 'like' or 'dislike'."

// ReactionResult is the outcome of a successful reaction.
type ReactionResult struct {
	PublicationID uint                  `json:"publication_id"`
	User          uint                  `json:"user"`
	UserName      string                `json:"user_name"`
	Action        models.ReactionAction `json:"action"`
	TotalLikes    int64                 `json:"total_likes"`
	TotalDislikes int64                 `json:"total_dislikes"`
}

type ReactionService struct {
	pubs  repository.PublicationRepository
	views repository.ViewRepository
}

func NewReactionService(pubs repository.PublicationRepository, views repository.ViewRepository) *ReactionService {
	return &ReactionService{pubs: pubs, views: views}
}

// React records a like or dislike. Switching sides clears the opposite flag;
// repeating the current reaction fails with an already-reacted error.
func (s *ReactionService) React(ctx context.Context, caller models.Identity, publicationID uint, rawAction string) (_ *ReactionResult, err error) {
	span, ctx := observability.StartOperation(ctx, "ReactionService", "React",
		attribute.Int64("publication.id", int64(publicationID)))
	defer span.Finish(&err)

	if caller.Anonymous() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	action, ok := models.ParseReactionAction(rawAction)
	if !ok {
		return nil, models.NewChoiceError(invalidReactionMessage, models.ReactionChoices())
	}

	p, err := s.pubs.GetByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanRead(caller, p).Err(); err != nil {
		return nil, err
	}

	if _, _, err := s.views.InsertOrFetch(ctx, publicationID, caller.UserID); err != nil {
		return nil, err
	}
	applied, err := s.views.SetReaction(ctx, publicationID, caller.UserID, action)
	if err != nil {
		return nil, err
	}
	if !applied {
		observability.Reactions.WithLabelValues(string(action), "duplicate").Inc()
		return nil, models.NewAlreadyReactedError(action)
	}
	observability.Reactions.WithLabelValues(string(action), "applied").Inc()

	totals, err := s.views.Totals(ctx, publicationID)
	if err != nil {
		return nil, err
	}

	middleware.Logger.DebugContext(ctx, "reaction recorded",
		slog.Any("publication_id", publicationID),
		slog.String("action", string(action)),
	)
	return &ReactionResult{
		PublicationID: publicationID,
		User:          caller.UserID,
		UserName:      reactorName(caller),
		Action:        action,
		TotalLikes:    totals.Likes,
		TotalDislikes: totals.Dislikes,
	}, nil
}

func reactorName(identity models.Identity) string {
	if identity.FullName != "" {
		return identity.FullName
	}
	return identity.Email
}
