package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/service"

	"gopkg.in/yaml.v3"
)

// Fixtures is a hand written data set. Users are referred to by key so the
// file never has to know generated identifiers.
type Fixtures struct {
	Users  []FixtureUser  `yaml:"users"`
	Photos []FixturePhoto `yaml:"photos"`
}

type FixtureUser struct {
	Key         string `yaml:"key"`
	LoginName   string `yaml:"login_name"`
	Password    string `yaml:"password"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	Location    string `yaml:"location"`
	Description string `yaml:"description"`
	Occupation  string `yaml:"occupation"`
}

type FixturePhoto struct {
	Owner    string           `yaml:"owner"`
	FileName string           `yaml:"file_name"`
	DateTime time.Time        `yaml:"date_time"`
	Comments []FixtureComment `yaml:"comments"`
	LikedBy  []string         `yaml:"liked_by"`
}

type FixtureComment struct {
	Author   string    `yaml:"author"`
	Text     string    `yaml:"comment"`
	DateTime time.Time `yaml:"date_time"`
	Mentions []string  `yaml:"mentions"`
}

// LoadFixtures decodes a YAML fixture document. Unknown fields are rejected.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &fx, nil
}

// ApplyFixtures writes fx. Photo and comment timestamps are kept as given;
// files named by photos are expected to exist in the image store already.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (*Summary, error) {
	sum := &Summary{}
	ids := make(map[string]string, len(fx.Users))
	for _, fu := range fx.Users {
		if _, dup := ids[fu.Key]; dup || fu.Key == "" {
			return sum, fmt.Errorf("fixture user key %q is empty or repeated", fu.Key)
		}
		u, err := s.users.Register(ctx, service.RegisterInput{
			LoginName:   fu.LoginName,
			Password:    fu.Password,
			FirstName:   fu.FirstName,
			LastName:    fu.LastName,
			Location:    fu.Location,
			Description: fu.Description,
			Occupation:  fu.Occupation,
		})
		if err != nil {
			return sum, fmt.Errorf("fixture user %q: %w", fu.Key, err)
		}
		ids[fu.Key] = u.ID
		sum.Users++
	}

	resolve := func(keys []string) ([]string, error) {
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			id, ok := ids[k]
			if !ok {
				return nil, fmt.Errorf("unknown fixture user %q", k)
			}
			out = append(out, id)
		}
		return models.UnionIDs(nil, out), nil
	}

	for _, fp := range fx.Photos {
		owner, err := resolve([]string{fp.Owner})
		if err != nil {
			return sum, err
		}
		photo := &models.Photo{
			UserID:   owner[0],
			FileName: fp.FileName,
			DateTime: fp.DateTime.UTC(),
		}
		if err := s.store.Photos.Create(ctx, photo); err != nil {
			return sum, fmt.Errorf("fixture photo %q: %w", fp.FileName, err)
		}
		sum.Photos++

		for _, fc := range fp.Comments {
			author, err := resolve([]string{fc.Author})
			if err != nil {
				return sum, err
			}
			mentions, err := resolve(fc.Mentions)
			if err != nil {
				return sum, err
			}
			comment := &models.Comment{
				UserID:   author[0],
				Text:     fc.Text,
				DateTime: fc.DateTime.UTC(),
				Mentions: mentions,
			}
			if err := s.store.Photos.AddComment(ctx, photo.ID, comment); err != nil {
				return sum, fmt.Errorf("fixture comment on %q: %w", fp.FileName, err)
			}
			if len(mentions) > 0 {
				if _, err := s.store.Photos.AddMentions(ctx, photo.ID, mentions); err != nil {
					return sum, err
				}
			}
			sum.Comments++
		}

		likers, err := resolve(fp.LikedBy)
		if err != nil {
			return sum, err
		}
		for _, id := range likers {
			if err := s.store.Likes.Create(ctx, id, photo.ID); err != nil {
				return sum, err
			}
			sum.Likes++
		}
	}

	middleware.Logger.Info("Fixtures applied",
		slog.Int("users", sum.Users),
		slog.Int("photos", sum.Photos),
		slog.Int("comments", sum.Comments),
	)
	return sum, nil
}
