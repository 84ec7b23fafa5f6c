// Package seed creates demo and fixture data through the same services the
// API uses, so seeded records obey every invariant live writes do.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/repository"
	"photoshare/internal/service"
	"photoshare/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password of every generated demo user.
const DefaultPassword = "password123"

// Options tune the generated demo data.
type Options struct {
	Users            int
	PhotosPerUser    int
	CommentsPerPhoto int
	// LikeRatio is the chance that a given user likes a given photo.
	LikeRatio float64
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Users    int
	Photos   int
	Comments int
	Likes    int
}

// Seeder writes demo data into a Store.
type Seeder struct {
	store     *repository.Store
	users     *service.UserService
	mutations *service.MutationService
	uploads   *service.UploadService
	rng       *rand.Rand
}

// NewSeeder wires a Seeder over store and files. Notifications are never sent
// for seeded activity.
func NewSeeder(store *repository.Store, files storage.PhotoStore) *Seeder {
	return &Seeder{
		store:     store,
		users:     service.NewUserService(store.Users, store.Photos, store.Schema),
		mutations: service.NewMutationService(store.Users, store.Photos, store.Likes, files, nil),
		uploads:   service.NewUploadService(store.Photos, files, nil),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// EnsureSchemaInfo stamps the store with the current schema version.
func (s *Seeder) EnsureSchemaInfo(ctx context.Context) error {
	info, err := s.users.EnsureSchemaInfo(ctx)
	if err != nil {
		return fmt.Errorf("schema info: %w", err)
	}
	middleware.Logger.Info("Schema info ready", slog.String("version", info.Version))
	return nil
}

// ClearAll deletes every account and everything the accounts own.
func (s *Seeder) ClearAll(ctx context.Context) error {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := s.mutations.DeleteAccount(ctx, u.ID); err != nil {
			return fmt.Errorf("delete account %s: %w", u.LoginName, err)
		}
	}
	middleware.Logger.Info("Cleared existing data", slog.Int("users", len(users)))
	return nil
}

// SeedDemo generates users, photos, comments with mentions and likes.
func (s *Seeder) SeedDemo(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Seed != 0 {
		gofakeit.Seed(opts.Seed)
		s.rng = rand.New(rand.NewSource(opts.Seed))
	}

	sum := &Summary{}
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := s.users.Register(ctx, s.fakeUser(i))
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
		sum.Users++
	}

	var photos []*models.Photo
	for _, u := range users {
		for i := 0; i < opts.PhotosPerUser; i++ {
			content, err := s.fakeImage()
			if err != nil {
				return sum, err
			}
			p, err := s.uploads.Upload(ctx, service.UploadInput{
				UserID:   u.ID,
				FileName: fmt.Sprintf("%s-%d-%d.png", gofakeit.Word(), sum.Users, sum.Photos),
				Content:  content,
			})
			if err != nil {
				return sum, fmt.Errorf("upload photo: %w", err)
			}
			photos = append(photos, p)
			sum.Photos++
		}
	}

	for _, p := range photos {
		for i := 0; i < opts.CommentsPerPhoto; i++ {
			author := users[s.rng.Intn(len(users))]
			var mentions []string
			if s.rng.Intn(3) == 0 {
				mentions = []string{users[s.rng.Intn(len(users))].ID}
			}
			if _, err := s.mutations.AddComment(ctx, service.AddCommentInput{
				PhotoID:  p.ID,
				AuthorID: author.ID,
				Text:     gofakeit.Sentence(8),
				Mentions: mentions,
			}); err != nil {
				return sum, fmt.Errorf("add comment: %w", err)
			}
			sum.Comments++
		}

		for _, u := range users {
			if s.rng.Float64() >= opts.LikeRatio {
				continue
			}
			if _, err := s.mutations.ToggleLike(ctx, p.ID, u.ID); err != nil {
				return sum, fmt.Errorf("like photo: %w", err)
			}
			sum.Likes++
		}
	}

	middleware.Logger.Info("Demo data seeded",
		slog.Int("users", sum.Users),
		slog.Int("photos", sum.Photos),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

func (s *Seeder) fakeUser(i int) service.RegisterInput {
	first := gofakeit.FirstName()
	return service.RegisterInput{
		LoginName:   loginName(gofakeit.Username(), i),
		Password:    DefaultPassword,
		FirstName:   first,
		LastName:    gofakeit.LastName(),
		Location:    gofakeit.City() + ", " + gofakeit.StateAbr(),
		Description: gofakeit.Sentence(10),
		Occupation:  gofakeit.JobTitle(),
	}
}

// loginName keeps only characters valid in a login name and makes it unique
// within one run.
func loginName(raw string, i int) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return -1
	}, raw)
	if len(clean) > 48 {
		clean = clean[:48]
	}
	if clean == "" {
		clean = "user"
	}
	return fmt.Sprintf("%s_%d", strings.ToLower(clean), i)
}

// fakeImage renders a small solid PNG so demo photos pass upload decoding.
func (s *Seeder) fakeImage() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	fill := color.RGBA{R: uint8(s.rng.Intn(256)), G: uint8(s.rng.Intn(256)), B: uint8(s.rng.Intn(256)), A: 255}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode demo image: %w", err)
	}
	return buf.Bytes(), nil
}
