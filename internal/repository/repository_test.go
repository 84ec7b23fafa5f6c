package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return NewGormStore(db)
}

func seedUser(t *testing.T, s *Store, login string) *models.User {
	t.Helper()
	u := &models.User{LoginName: login, Password: "hash", FirstName: login, LastName: "Tester"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func seedPhoto(t *testing.T, s *Store, owner string, at time.Time) *models.Photo {
	t.Helper()
	p := &models.Photo{UserID: owner, FileName: "U" + at.Format("150405") + ".jpg", DateTime: at}
	require.NoError(t, s.Photos.Create(context.Background(), p))
	return p
}

func TestLikeRepository_CreateIgnoresConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "likes" .*ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), "u1", "p1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Exists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE user_id = $1 AND photo_id = $2`)).
		WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), "u1", "p1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_AddMentionsLocksRowOnPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPhotoRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "photos" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mentions"}).AddRow("p1", `["a"]`))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "photos" SET "mentions"=$1 WHERE id = $2`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	merged, err := repo.AddMentions(context.Background(), "p1", []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, models.IDList{"a", "b"}, merged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SQLite(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()

	ada := seedUser(t, s, "ada")
	seedUser(t, s, "bob")

	t.Run("duplicate login name", func(t *testing.T) {
		err := s.Users.Create(ctx, &models.User{LoginName: "ada", Password: "x", FirstName: "A", LastName: "B"})
		assert.True(t, models.IsCode(err, models.CodeValidation))
	})

	t.Run("lookup by login name", func(t *testing.T) {
		u, err := s.Users.GetByLoginName(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, ada.ID, u.ID)

		missing, err := s.Users.GetByLoginName(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("get by id not found", func(t *testing.T) {
		_, err := s.Users.GetByID(ctx, models.NewID())
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})

	t.Run("find by ids", func(t *testing.T) {
		users, err := s.Users.FindByIDs(ctx, []string{ada.ID, models.NewID()})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "ada", users[0].LoginName)
	})

	t.Run("list and count", func(t *testing.T) {
		users, err := s.Users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
		n, err := s.Users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Users.Delete(ctx, ada.ID))
		err := s.Users.Delete(ctx, ada.ID)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})
}

func TestPhotoRepository_SQLite(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	owner := seedUser(t, s, "owner")
	fan := seedUser(t, s, "fan")
	later := seedPhoto(t, s, owner.ID, base.Add(time.Hour))
	earlier := seedPhoto(t, s, owner.ID, base)

	t.Run("owner photos oldest first", func(t *testing.T) {
		photos, err := s.Photos.FindByOwner(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Equal(t, earlier.ID, photos[0].ID)
		assert.Equal(t, later.ID, photos[1].ID)
	})

	t.Run("comment on missing photo", func(t *testing.T) {
		err := s.Photos.AddComment(ctx, models.NewID(), &models.Comment{UserID: fan.ID, Text: "hi", DateTime: base})
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})

	second := &models.Comment{UserID: owner.ID, Text: "second", DateTime: base.Add(2 * time.Minute)}
	first := &models.Comment{UserID: fan.ID, Text: "first", DateTime: base.Add(time.Minute), Mentions: models.IDList{owner.ID}}
	require.NoError(t, s.Photos.AddComment(ctx, earlier.ID, second))
	require.NoError(t, s.Photos.AddComment(ctx, earlier.ID, first))

	t.Run("thread is ordered by time", func(t *testing.T) {
		photo, err := s.Photos.GetByID(ctx, earlier.ID)
		require.NoError(t, err)
		require.Len(t, photo.Comments, 2)
		assert.Equal(t, "first", photo.Comments[0].Text)
		assert.Equal(t, models.IDList{owner.ID}, photo.Comments[0].Mentions)
		assert.Equal(t, "second", photo.Comments[1].Text)
	})

	t.Run("mentions union", func(t *testing.T) {
		merged, err := s.Photos.AddMentions(ctx, earlier.ID, []string{fan.ID, owner.ID})
		require.NoError(t, err)
		assert.Equal(t, models.IDList{fan.ID, owner.ID}, merged)

		merged, err = s.Photos.AddMentions(ctx, earlier.ID, []string{owner.ID})
		require.NoError(t, err)
		assert.Len(t, merged, 2)

		_, err = s.Photos.AddMentions(ctx, models.NewID(), []string{owner.ID})
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})

	t.Run("find by mention", func(t *testing.T) {
		photos, err := s.Photos.FindByMention(ctx, fan.ID)
		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, earlier.ID, photos[0].ID)
	})

	t.Run("comment mentions", func(t *testing.T) {
		require.NoError(t, s.Photos.AddCommentMentions(ctx, second.ID, []string{fan.ID}))
		photo, err := s.Photos.FindByCommentID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, earlier.ID, photo.ID)
		assert.Equal(t, models.IDList{fan.ID}, photo.Comments[1].Mentions)
	})

	t.Run("commented by", func(t *testing.T) {
		photos, err := s.Photos.FindCommentedBy(ctx, fan.ID)
		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, earlier.ID, photos[0].ID)
	})

	t.Run("remove comment checks photo", func(t *testing.T) {
		err := s.Photos.RemoveComment(ctx, later.ID, first.ID)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
		require.NoError(t, s.Photos.RemoveComment(ctx, earlier.ID, first.ID))
	})

	t.Run("remove comments by user and reset mentions", func(t *testing.T) {
		require.NoError(t, s.Photos.RemoveCommentsByUser(ctx, earlier.ID, owner.ID))
		require.NoError(t, s.Photos.SetMentions(ctx, earlier.ID, nil))
		photo, err := s.Photos.GetByID(ctx, earlier.ID)
		require.NoError(t, err)
		assert.Empty(t, photo.Comments)
		assert.NotNil(t, photo.Mentions)
		assert.Empty(t, photo.Mentions)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Photos.AddComment(ctx, later.ID, &models.Comment{UserID: fan.ID, Text: "bye", DateTime: base}))
		require.NoError(t, s.Photos.Delete(ctx, later.ID))
		_, err := s.Photos.GetByID(ctx, later.ID)
		assert.True(t, models.IsCode(err, models.CodeNotFound))
		photos, err := s.Photos.FindCommentedBy(ctx, fan.ID)
		require.NoError(t, err)
		assert.Empty(t, photos)

		n, err := s.Photos.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestLikeRepository_SQLite(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "owner")
	fan := seedUser(t, s, "fan")
	photo := seedPhoto(t, s, owner.ID, time.Now().UTC())

	require.NoError(t, s.Likes.Create(ctx, fan.ID, photo.ID))
	require.NoError(t, s.Likes.Create(ctx, fan.ID, photo.ID))
	require.NoError(t, s.Likes.Create(ctx, owner.ID, photo.ID))

	likes, err := s.Likes.FindByPhotoIDs(ctx, []string{photo.ID})
	require.NoError(t, err)
	assert.Len(t, likes, 2)

	ok, err := s.Likes.Exists(ctx, fan.ID, photo.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Likes.Delete(ctx, fan.ID, photo.ID))
	ok, err = s.Likes.Exists(ctx, fan.ID, photo.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Likes.DeleteByUser(ctx, owner.ID))
	likes, err = s.Likes.FindByPhotoIDs(ctx, []string{photo.ID})
	require.NoError(t, err)
	assert.Empty(t, likes)

	empty, err := s.Likes.FindByPhotoIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestSchemaInfoRepository_SQLite(t *testing.T) {
	s := setupSQLiteStore(t)
	ctx := context.Background()

	_, err := s.Schema.Get(ctx)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	info, err := s.Schema.Ensure(ctx, "1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0", info.Version)

	again, err := s.Schema.Ensure(ctx, "2.0")
	require.NoError(t, err)
	assert.Equal(t, info.ID, again.ID)

	n, err := s.Schema.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "sqlite", s.Backend)
	assert.NoError(t, s.Ping(ctx))
}
