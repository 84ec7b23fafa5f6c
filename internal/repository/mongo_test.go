package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMongoStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("MONGO_TEST_URL")
	if url == "" {
		t.Skip("MONGO_TEST_URL not set")
	}

	ctx := context.Background()
	name := "photoshare_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	mdb, err := database.ConnectMongo(ctx, &config.Config{MongoURL: url, MongoDB: name})
	require.NoError(t, err)

	s, err := NewMongoStore(ctx, mdb)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mdb.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestMongoStore(t *testing.T) {
	s := setupMongoStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	owner := seedUser(t, s, "owner")
	fan := seedUser(t, s, "fan")
	photo := seedPhoto(t, s, owner.ID, base)

	err := s.Users.Create(ctx, &models.User{LoginName: "owner", Password: "x", FirstName: "O", LastName: "W"})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	comment := &models.Comment{UserID: fan.ID, Text: "nice", DateTime: base.Add(time.Minute)}
	require.NoError(t, s.Photos.AddComment(ctx, photo.ID, comment))

	merged, err := s.Photos.AddMentions(ctx, photo.ID, []string{owner.ID, owner.ID})
	require.NoError(t, err)
	assert.Equal(t, models.IDList{owner.ID}, merged)
	require.NoError(t, s.Photos.AddCommentMentions(ctx, comment.ID, []string{owner.ID}))

	found, err := s.Photos.FindByCommentID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, photo.ID, found.ID)
	require.Len(t, found.Comments, 1)
	assert.Equal(t, models.IDList{owner.ID}, found.Comments[0].Mentions)

	mentioned, err := s.Photos.FindByMention(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mentioned, 1)

	require.NoError(t, s.Likes.Create(ctx, fan.ID, photo.ID))
	require.NoError(t, s.Likes.Create(ctx, fan.ID, photo.ID))
	likes, err := s.Likes.FindByPhotoIDs(ctx, []string{photo.ID})
	require.NoError(t, err)
	assert.Len(t, likes, 1)

	require.NoError(t, s.Photos.RemoveComment(ctx, photo.ID, comment.ID))
	err = s.Photos.RemoveComment(ctx, photo.ID, comment.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	require.NoError(t, s.Photos.Delete(ctx, photo.ID))
	_, err = s.Photos.GetByID(ctx, photo.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	info, err := s.Schema.Ensure(ctx, "1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0", info.Version)
	assert.Equal(t, "mongo", s.Backend)
}
