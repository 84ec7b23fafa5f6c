package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/models"
	"photoshare/internal/repository"
	"photoshare/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.Connect(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return repository.NewGormStore(db)
}

type publishedEvent struct {
	recipient string
	event     models.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, recipientID string, event models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{recipient: recipientID, event: event})
	return nil
}

func (p *recordingPublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type fixture struct {
	store     *repository.Store
	files     *storage.LocalStore
	publisher *recordingPublisher
	agg       *AggregationService
	mut       *MutationService
	users     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	files, err := storage.NewLocalStore(t.TempDir(), "/images")
	require.NoError(t, err)
	pub := &recordingPublisher{}

	mut := NewMutationService(store.Users, store.Photos, store.Likes, files, pub)
	mut.now = steppingClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	return &fixture{
		store:     store,
		files:     files,
		publisher: pub,
		agg:       NewAggregationService(store.Users, store.Photos, store.Likes),
		mut:       mut,
		users:     NewUserService(store.Users, store.Photos, store.Schema),
	}
}

func (f *fixture) user(t *testing.T, login, first, last string) *models.User {
	t.Helper()
	u := &models.User{LoginName: login, Password: "x", FirstName: first, LastName: last}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) photo(t *testing.T, owner *models.User, name string, at time.Time) *models.Photo {
	t.Helper()
	p := &models.Photo{UserID: owner.ID, FileName: name, DateTime: at}
	require.NoError(t, f.store.Photos.Create(context.Background(), p))
	return p
}

func (f *fixture) comment(t *testing.T, photo *models.Photo, author *models.User, text string, mentions ...string) *models.Comment {
	t.Helper()
	c, err := f.mut.AddComment(context.Background(), AddCommentInput{
		PhotoID:  photo.ID,
		AuthorID: author.ID,
		Text:     text,
		Mentions: mentions,
	})
	require.NoError(t, err)
	return c
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
