package seed

import (
	"context"
	"os"
	"strings"
	"testing"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/repository"
	"photoshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeeder(t *testing.T) (*Seeder, *repository.Store) {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	files, err := storage.NewLocalStore(t.TempDir(), "/images")
	require.NoError(t, err)

	store := repository.NewGormStore(db)
	return NewSeeder(store, files), store
}

func TestSeedDemo(t *testing.T) {
	s, store := newTestSeeder(t)
	ctx := context.Background()

	sum, err := s.SeedDemo(ctx, Options{Users: 3, PhotosPerUser: 2, CommentsPerPhoto: 2, LikeRatio: 1, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 3, Photos: 6, Comments: 12, Likes: 18}, sum)

	users, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), users)
	photos, err := store.Photos.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), photos)

	list, err := store.Users.List(ctx)
	require.NoError(t, err)
	owned, err := store.Photos.FindByOwner(ctx, list[0].ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.True(t, strings.HasPrefix(owned[0].FileName, "U"))

	require.NoError(t, s.ClearAll(ctx))
	users, err = store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, users)
	photos, err = store.Photos.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, photos)
}

func TestLoginName(t *testing.T) {
	assert.Equal(t, "okeefe12_3", loginName("O'Keefe12", 3))
	assert.Equal(t, "user_0", loginName("''", 0))
	assert.LessOrEqual(t, len(loginName(strings.Repeat("a", 100), 7)), 64)
}

func TestApplyFixtures(t *testing.T) {
	s, store := newTestSeeder(t)
	ctx := context.Background()

	f, err := os.Open("testdata/fixtures.yaml")
	require.NoError(t, err)
	defer f.Close()
	fx, err := LoadFixtures(f)
	require.NoError(t, err)

	sum, err := s.ApplyFixtures(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 2, Photos: 3, Comments: 3, Likes: 1}, sum)
	require.NoError(t, s.EnsureSchemaInfo(ctx))

	ian, err := store.Users.GetByLoginName(ctx, "malcolm")
	require.NoError(t, err)
	require.NotNil(t, ian)

	mentioned, err := store.Photos.FindByMention(ctx, ian.ID)
	require.NoError(t, err)
	require.Len(t, mentioned, 1)
	assert.Equal(t, "malcolm1.jpg", mentioned[0].FileName)
	require.Len(t, mentioned[0].Comments, 1)
	assert.Equal(t, 2009, mentioned[0].Comments[0].DateTime.Year())

	info, err := store.Schema.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0", info.Version)
}

func TestApplyFixtures_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown owner",
			doc:  "users: []\nphotos:\n  - owner: ghost\n    file_name: a.jpg\n    date_time: 2020-01-01T00:00:00Z\n",
			want: `unknown fixture user "ghost"`,
		},
		{
			name: "repeated key",
			doc: "users:\n" +
				"  - {key: a, login_name: a1, password: p, first_name: A, last_name: A}\n" +
				"  - {key: a, login_name: a2, password: p, first_name: A, last_name: A}\n",
			want: `fixture user key "a" is empty or repeated`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSeeder(t)
			fx, err := LoadFixtures(strings.NewReader(tt.doc))
			require.NoError(t, err)
			_, err = s.ApplyFixtures(context.Background(), fx)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixtures_RejectsUnknownFields(t *testing.T) {
	_, err := LoadFixtures(strings.NewReader("users:\n  - key: a\n    nickname: x\n"))
	assert.Error(t, err)
}
