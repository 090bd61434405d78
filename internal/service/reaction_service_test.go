package service

import (
	"context"
	"sync"
	"testing"

	"pubhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionService_LikeThenDislikeFlips(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, 1, models.RoleAuthor, "Ada")
	reader := env.user(t, 2, models.RoleAuthor, "Bob")
	other := env.user(t, 3, models.RoleAuthor, "Cid")
	p := env.publication(t, author, models.StatusApproved, "Deep Learning Today")
	svc := NewReactionService(env.pubs, env.views)

	_, err := svc.React(ctx, other, p.ID, "like")
	require.NoError(t, err)

	res, err := svc.React(ctx, reader, p.ID, "like")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalLikes)
	assert.Equal(t, int64(0), res.TotalDislikes)

	res, err = svc.React(ctx, reader, p.ID, "dislike")
	require.NoError(t, err)
	assert.Equal(t, p.ID, res.PublicationID)
	assert.Equal(t, reader.UserID, res.User)
	assert.Equal(t, "Bob", res.UserName)
	assert.Equal(t, models.ReactionDislike, res.Action)
	assert.Equal(t, int64(1), res.TotalLikes)
	assert.Equal(t, int64(1), res.TotalDislikes)

	rec, err := env.views.Find(ctx, p.ID, reader.UserID)
	require.NoError(t, err)
	assert.True(t, rec.UserDisliked)
	assert.False(t, rec.UserLiked)
}

func TestReactionService_DuplicateIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, 1, models.RoleAuthor, "Ada")
	reader := env.user(t, 2, models.RoleAuthor, "Bob")
	p := env.publication(t, author, models.StatusApproved, "Deep Learning Today")
	svc := NewReactionService(env.pubs, env.views)

	_, err := svc.React(ctx, reader, p.ID, "like")
	require.NoError(t, err)

	_, err = svc.React(ctx, reader, p.ID, "like")
	appErr := assertCode(t, err, models.CodeAlreadyReacted)
	assert.Equal(t, "You have already liked this publication.", appErr.Message)

	totals, err := env.views.Totals(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Likes)
	assert.Equal(t, int64(0), totals.Dislikes)

	rec, err := env.views.Find(ctx, p.ID, reader.UserID)
	require.NoError(t, err)
	assert.True(t, rec.UserLiked)
	assert.False(t, rec.UserDisliked)
}

func TestReactionService_InvalidAction(t *testing.T) {
	env := newTestEnv(t)
	reader := env.user(t, 2, models.RoleAuthor, "Bob")
	svc := NewReactionService(env.pubs, env.views)

	_, err := svc.React(context.Background(), reader, 1, "love")
	appErr := assertValidationError(t, err)
	assert.Equal(t, "Invalid action. Use 'like' or 'dislike'.", appErr.Message)
	assert.Equal(t, []string{"like", "dislike"}, appErr.Allowed)
}

func TestReactionService_RequiresReadAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, 1, models.RoleAuthor, "Ada")
	reader := env.user(t, 2, models.RoleAuthor, "Bob")
	p := env.publication(t, author, models.StatusPending, "Deep Learning Today")
	svc := NewReactionService(env.pubs, env.views)

	_, err := svc.React(ctx, reader, p.ID, "like")
	assertCode(t, err, models.CodePermissionDenied)

	_, err = svc.React(ctx, reader, 9999, "like")
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.React(ctx, models.Identity{}, p.ID, "like")
	assertCode(t, err, models.CodeUnauthorized)

	res, err := svc.React(ctx, author, p.ID, "like")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TotalLikes)
}

func TestReactionService_ConcurrentFirstReactionsKeepOneRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, 1, models.RoleAuthor, "Ada")
	reader := env.user(t, 2, models.RoleAuthor, "Bob")
	p := env.publication(t, author, models.StatusApproved, "Deep Learning Today")
	svc := NewReactionService(env.pubs, env.views)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.React(ctx, reader, p.ID, "like"); err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	var rows int64
	require.NoError(t, env.db.Model(&models.ViewRecord{}).Where("publication_id = ?", p.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestReactionService_ReactingBeforeViewingSkipsViewCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, 1, models.RoleAuthor, "Ada")
	reader := env.user(t, 2, models.RoleAuthor, "Bob")
	p := env.publication(t, author, models.StatusApproved, "Deep Learning Today")

	_, err := NewReactionService(env.pubs, env.views).React(ctx, reader, p.ID, "like")
	require.NoError(t, err)

	counted, err := env.svc.RecordView(ctx, p.ID, reader.UserID)
	require.NoError(t, err)
	assert.False(t, counted)
}
