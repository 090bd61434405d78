// Package service implements the publication review workflow on top of the
// repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pubhub/internal/cache"
	"pubhub/internal/middleware"
	"pubhub/internal/models"
	"pubhub/internal/observability"
	"pubhub/internal/policy"
	"pubhub/internal/repository"
	"pubhub/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

const (
	blobKindDocument = "documents"
	blobKindVideo    = "videos"

	defaultListLimit = 20
	maxListLimit     = 100
)

// NotificationPublisher pushes stored notifications to realtime subscribers.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

type PublicationService struct {
	pubs          repository.PublicationRepository
	views         repository.ViewRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	blobs         storage.BlobStore
	publisher     NotificationPublisher
	now           func() time.Time
}

// StatusChangeInput is an editor's decision on a publication.
type StatusChangeInput struct {
	Status        string
	RejectionNote *string
}

// StatusChangeResult reports what ChangeStatus stored.
type StatusChangeResult struct {
	Status        models.PublicationStatus
	RejectionNote *string
	Notified      int
}

// ListPublicationsInput filters a listing. Keywords is the raw
// comma-separated query value.
type ListPublicationsInput struct {
	Keywords string
	Limit    int
	Offset   int
}

func NewPublicationService(
	pubs repository.PublicationRepository,
	views repository.ViewRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	blobs storage.BlobStore,
	publisher NotificationPublisher,
) *PublicationService {
	return &PublicationService{
		pubs:          pubs,
		views:         views,
		users:         users,
		notifications: notifications,
		blobs:         blobs,
		publisher:     publisher,
		now:           time.Now,
	}
}

// Create validates the submission, stores attachments and persists a
// pending publication owned by the caller.
func (s *PublicationService) Create(ctx context.Context, caller models.Identity, in PublicationInput) (_ *models.Publication, err error) {
	span, ctx := observability.StartOperation(ctx, "PublicationService", "Create")
	defer span.Finish(&err)

	if caller.Anonymous() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	v, err := validatePublication(in, false)
	if err != nil {
		return nil, err
	}

	p := &models.Publication{
		Title:           v.columns["title"].(string),
		Abstract:        v.columns["abstract"].(string),
		Content:         v.columns["content"].(string),
		AuthorID:        caller.UserID,
		Status:          models.StatusPending,
		PublicationDate: s.now(),
	}
	if kw, ok := v.columns["keywords"].(string); ok {
		p.Keywords = kw
	}

	stored, err := s.storeAttachments(ctx, v)
	if err != nil {
		return nil, err
	}
	p.File, p.FileName = stored.file, stored.fileName
	p.VideoFile, p.VideoFileName = stored.video, stored.videoName

	if err := s.pubs.Create(ctx, p, v.categories); err != nil {
		s.discardBlobs(ctx, stored.file, stored.video)
		return nil, err
	}

	observability.PublicationsCreated.Inc()
	cache.InvalidateCategoryCatalog(ctx)
	middleware.Logger.InfoContext(ctx, "publication created", slog.Any("publication_id", p.ID))

	created, err := s.pubs.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := s.attachStats(ctx, created, caller.UserID); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateContent applies the supplied author-editable fields. Only the author
// may edit, and never while the publication is rejected.
func (s *PublicationService) UpdateContent(ctx context.Context, caller models.Identity, id uint, in PublicationInput) (err error) {
	span, ctx := observability.StartOperation(ctx, "PublicationService", "UpdateContent",
		attribute.Int64("publication.id", int64(id)))
	defer span.Finish(&err)

	p, err := s.pubs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, p, policy.OpEditContent).Err(); err != nil {
		return err
	}

	v, err := validatePublication(in, true)
	if err != nil {
		return err
	}

	stored, err := s.storeAttachments(ctx, v)
	if err != nil {
		return err
	}
	if v.file != nil {
		v.columns["file"] = stored.file
		v.columns["file_name"] = stored.fileName
	}
	if v.video != nil {
		v.columns["video_file"] = stored.video
		v.columns["video_file_name"] = stored.videoName
	}

	if err := s.pubs.UpdateContent(ctx, id, v.columns, v.categories); err != nil {
		s.discardBlobs(ctx, stored.file, stored.video)
		return err
	}

	// Replaced attachments are no longer referenced.
	if v.file != nil {
		s.discardBlobs(ctx, p.File)
	}
	if v.video != nil {
		s.discardBlobs(ctx, p.VideoFile)
	}
	if v.categories != nil {
		cache.InvalidateCategoryCatalog(ctx)
	}
	return nil
}

// ChangeStatus records an editorial decision and notifies the author and
// every other editor.
func (s *PublicationService) ChangeStatus(ctx context.Context, caller models.Identity, id uint, in StatusChangeInput) (_ *StatusChangeResult, err error) {
	span, ctx := observability.StartOperation(ctx, "PublicationService", "ChangeStatus",
		attribute.Int64("publication.id", int64(id)))
	defer span.Finish(&err)

	p, err := s.pubs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, p, policy.OpChangeStatus).Err(); err != nil {
		return nil, err
	}

	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var note *string
	if status == models.StatusRejected && in.RejectionNote != nil {
		if trimmed := strings.TrimSpace(*in.RejectionNote); trimmed != "" {
			note = &trimmed
		}
	}

	if err := s.pubs.UpdateStatus(ctx, id, repository.StatusChange{
		Status:        status,
		EditorID:      caller.UserID,
		RejectionNote: note,
	}); err != nil {
		return nil, err
	}
	observability.StatusChanges.WithLabelValues(string(status)).Inc()
	cache.InvalidateCategoryCatalog(ctx)
	span.AddAttributes(attribute.String("publication.status", string(status)))

	notified, err := s.fanOut(ctx, caller, p, status, note)
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "publication status changed",
		slog.Any("publication_id", id),
		slog.String("status", string(status)),
		slog.Int("notified", notified),
	)
	return &StatusChangeResult{Status: status, RejectionNote: note, Notified: notified}, nil
}

// fanOut writes one notification for the author and one for every other
// editor, then pushes them to realtime subscribers best-effort.
func (s *PublicationService) fanOut(ctx context.Context, caller models.Identity, p *models.Publication, status models.PublicationStatus, note *string) (int, error) {
	at := s.now()

	editorIDs, err := s.users.ListEditorIDs(ctx, caller.UserID)
	if err != nil {
		return 0, err
	}

	batch := make([]*models.Notification, 0, len(editorIDs)+1)
	batch = append(batch, &models.Notification{
		UserID:               p.AuthorID,
		Message:              authorStatusMessage(p.Title, status, note, at),
		RelatedPublicationID: p.ID,
	})
	editorMsg := editorStatusMessage(p.Title, status, displayName(caller), at)
	for _, editorID := range editorIDs {
		batch = append(batch, &models.Notification{
			UserID:               editorID,
			Message:              editorMsg,
			RelatedPublicationID: p.ID,
		})
	}

	if err := s.notifications.CreateBatch(ctx, batch); err != nil {
		return 0, err
	}
	observability.NotificationsEmitted.WithLabelValues("author").Inc()
	observability.NotificationsEmitted.WithLabelValues("editor").Add(float64(len(editorIDs)))

	if s.publisher != nil {
		for _, n := range batch {
			if err := s.publisher.PublishNotification(ctx, n); err != nil {
				observability.NotificationPublishFailures.Inc()
				middleware.Logger.WarnContext(ctx, "failed to publish notification",
					slog.Any("notification_id", n.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return len(batch), nil
}

// RecordView counts the caller's first visit to a publication.
func (s *PublicationService) RecordView(ctx context.Context, publicationID, userID uint) (bool, error) {
	counted, err := s.views.RecordView(ctx, publicationID, userID)
	if err != nil {
		return false, err
	}
	if counted {
		observability.ViewsRecorded.Inc()
	}
	return counted, nil
}

// Get returns a readable publication with its stats, counting the view.
func (s *PublicationService) Get(ctx context.Context, caller models.Identity, id uint) (_ *models.Publication, err error) {
	span, ctx := observability.StartOperation(ctx, "PublicationService", "Get",
		attribute.Int64("publication.id", int64(id)))
	defer span.Finish(&err)

	p, err := s.pubs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanRead(caller, p).Err(); err != nil {
		return nil, err
	}

	if !caller.Anonymous() {
		counted, err := s.RecordView(ctx, id, caller.UserID)
		if err != nil {
			return nil, err
		}
		if counted {
			p.Views++
		}
	}

	if err := s.attachStats(ctx, p, caller.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

// Destroy deletes a publication with everything it owns.
func (s *PublicationService) Destroy(ctx context.Context, caller models.Identity, id uint) (err error) {
	span, ctx := observability.StartOperation(ctx, "PublicationService", "Destroy",
		attribute.Int64("publication.id", int64(id)))
	defer span.Finish(&err)

	p, err := s.pubs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanRead(caller, p).Err(); err != nil {
		return err
	}
	if err := policy.Authorize(caller, p, policy.OpDestroy).Err(); err != nil {
		return err
	}

	if err := s.pubs.Delete(ctx, id); err != nil {
		return err
	}
	s.discardBlobs(ctx, p.File, p.VideoFile)
	cache.InvalidateCategoryCatalog(ctx)
	middleware.Logger.InfoContext(ctx, "publication destroyed", slog.Any("publication_id", id))
	return nil
}

// List returns the publications the caller may see, newest first.
func (s *PublicationService) List(ctx context.Context, caller models.Identity, in ListPublicationsInput) ([]*models.Publication, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	list, err := s.pubs.List(ctx, repository.ListFilter{
		Keywords:    splitKeywords(in.Keywords),
		ViewerID:    caller.UserID,
		AllStatuses: caller.IsEditor(),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachStatsBatch(ctx, list, caller.UserID); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *PublicationService) attachStats(ctx context.Context, p *models.Publication, userID uint) error {
	return s.attachStatsBatch(ctx, []*models.Publication{p}, userID)
}

func (s *PublicationService) attachStatsBatch(ctx context.Context, list []*models.Publication, userID uint) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}

	totals, err := s.views.TotalsFor(ctx, ids)
	if err != nil {
		return err
	}
	mine, err := s.views.FindForUser(ctx, userID, ids)
	if err != nil {
		return err
	}

	for _, p := range list {
		t := totals[p.ID]
		rec := mine[p.ID]
		p.Stats = models.ViewStats{
			Views:         p.Views,
			TotalLikes:    t.Likes,
			TotalDislikes: t.Dislikes,
			UserLiked:     rec.UserLiked,
			UserDisliked:  rec.UserDisliked,
		}
	}
	return nil
}

type storedAttachments struct {
	file, fileName   string
	video, videoName string
}

func (s *PublicationService) storeAttachments(ctx context.Context, v *validatedInput) (storedAttachments, error) {
	var out storedAttachments
	if v.file == nil && v.video == nil {
		return out, nil
	}
	if s.blobs == nil {
		return out, models.NewInternalError(fmt.Errorf("no blob store configured"))
	}

	put := func(kind string, a *Attachment) (string, error) {
		rc, err := a.Open()
		if err != nil {
			return "", fmt.Errorf("open %s upload: %w", kind, err)
		}
		defer rc.Close()
		return s.blobs.Put(ctx, kind, a.Filename, rc)
	}

	if v.file != nil {
		ref, err := put(blobKindDocument, v.file)
		if err != nil {
			return out, models.NewInternalError(err)
		}
		out.file, out.fileName = ref, v.file.Filename
	}
	if v.video != nil {
		ref, err := put(blobKindVideo, v.video)
		if err != nil {
			s.discardBlobs(ctx, out.file)
			return storedAttachments{}, models.NewInternalError(err)
		}
		out.video, out.videoName = ref, v.video.Filename
	}
	return out, nil
}

func (s *PublicationService) discardBlobs(ctx context.Context, refs ...string) {
	if s.blobs == nil {
		return
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, ref); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete blob", slog.String("ref", ref), slog.String("error", err.Error()))
		}
	}
}
