package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"pubhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewsOf(t *testing.T, repo PublicationRepository, id uint) int64 {
	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Views
}

func TestViewRepository_RecordViewCountsOncePerUser(t *testing.T) {
	db := setupTestDB(t)
	pubs := NewPublicationRepository(db)
	repo := NewViewRepository(db)
	ctx := context.Background()
	p := seedPublication(t, db, 1, models.StatusApproved, "Counted exactly once")

	for i := 0; i < 5; i++ {
		counted, err := repo.RecordView(ctx, p.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, i == 0, counted)
	}
	assert.Equal(t, int64(1), viewsOf(t, pubs, p.ID))

	counted, err := repo.RecordView(ctx, p.ID, 8)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, int64(2), viewsOf(t, pubs, p.ID))
}

func TestViewRepository_RecordViewAfterReactionIsNotCounted(t *testing.T) {
	db := setupTestDB(t)
	pubs := NewPublicationRepository(db)
	repo := NewViewRepository(db)
	ctx := context.Background()
	p := seedPublication(t, db, 1, models.StatusApproved, "Reacted before reading")

	_, created, err := repo.InsertOrFetch(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.True(t, created)

	counted, err := repo.RecordView(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.False(t, counted)
	assert.Zero(t, viewsOf(t, pubs, p.ID))
}

func TestViewRepository_InsertOrFetchConcurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewViewRepository(db)
	ctx := context.Background()
	p := seedPublication(t, db, 1, models.StatusApproved, "Raced by many readers")

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.InsertOrFetch(ctx, p.ID, 3)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	var n int64
	require.NoError(t, db.Model(&models.ViewRecord{}).Where("publication_id = ? AND user_id = ?", p.ID, 3).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestViewRepository_SetReactionFlipsExclusively(t *testing.T) {
	db := setupTestDB(t)
	repo := NewViewRepository(db)
	ctx := context.Background()
	p := seedPublication(t, db, 1, models.StatusApproved, "Liked then disliked")

	_, _, err := repo.InsertOrFetch(ctx, p.ID, 2)
	require.NoError(t, err)

	applied, err := repo.SetReaction(ctx, p.ID, 2, models.ReactionLike)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.SetReaction(ctx, p.ID, 2, models.ReactionLike)
	require.NoError(t, err)
	assert.False(t, applied, "duplicate like must not apply")

	applied, err = repo.SetReaction(ctx, p.ID, 2, models.ReactionDislike)
	require.NoError(t, err)
	assert.True(t, applied)

	rec, err := repo.Find(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, rec.UserLiked)
	assert.True(t, rec.UserDisliked)
}

func TestViewRepository_Totals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewViewRepository(db)
	ctx := context.Background()
	p := seedPublication(t, db, 1, models.StatusApproved, "Aggregated on demand")
	other := seedPublication(t, db, 1, models.StatusApproved, "Untouched publication")

	react := func(user uint, action models.ReactionAction) {
		_, _, err := repo.InsertOrFetch(ctx, p.ID, user)
		require.NoError(t, err)
		_, err = repo.SetReaction(ctx, p.ID, user, action)
		require.NoError(t, err)
	}
	react(2, models.ReactionLike)
	react(3, models.ReactionLike)
	react(4, models.ReactionDislike)
	_, err := repo.RecordView(ctx, p.ID, 5)
	require.NoError(t, err)

	totals, err := repo.Totals(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionTotals{PublicationID: p.ID, Likes: 2, Dislikes: 1}, totals)

	empty, err := repo.Totals(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionTotals{PublicationID: other.ID}, empty)

	batch, err := repo.TotalsFor(ctx, []uint{p.ID, other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), batch[p.ID].Likes)
	assert.Zero(t, batch[other.ID].Likes)

	mine, err := repo.FindForUser(ctx, 2, []uint{p.ID, other.ID})
	require.NoError(t, err)
	assert.True(t, mine[p.ID].UserLiked)
	_, ok := mine[other.ID]
	assert.False(t, ok)
}

func TestViewRepository_SetReactionSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewViewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "publication_views" SET .*"user_liked"=.* WHERE publication_id = \$\d+ AND user_id = \$\d+ AND user_liked = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := repo.SetReaction(context.Background(), 1, 2, models.ReactionLike)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewRepository_RecordViewSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewViewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "publication_views"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT ("publication_id","user_id") DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_liked", "user_disliked"}).AddRow(1, false, false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "publications" SET "views"=views + $1 WHERE id = $2`)).
		WithArgs(1, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	counted, err := repo.RecordView(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
