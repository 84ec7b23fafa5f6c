// Package service holds the business logic between HTTP handlers and repositories.
package service

import (
	"context"
	"sort"

	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const unknownOwnerName = "Unknown"

// AggregationService assembles the denormalized read views.
type AggregationService struct {
	users  repository.UserRepository
	photos repository.PhotoRepository
	likes  repository.LikeRepository
}

func NewAggregationService(
	users repository.UserRepository,
	photos repository.PhotoRepository,
	likes repository.LikeRepository,
) *AggregationService {
	return &AggregationService{users: users, photos: photos, likes: likes}
}

// ListPhotosForUser returns the user's photos with resolved comment authors and
// likes, ordered by like count descending. Equal counts keep storage order.
func (s *AggregationService) ListPhotosForUser(ctx context.Context, userID string) (views []models.PhotoView, err error) {
	ctx, span := observability.StartSpan(ctx, "aggregation.list_photos", attribute.String("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	photos, err := s.photos.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return []models.PhotoView{}, nil
	}

	authors, err := s.commentAuthors(ctx, photos)
	if err != nil {
		return nil, err
	}
	likesByPhoto, err := s.likesFor(ctx, photoIDs(photos))
	if err != nil {
		return nil, err
	}

	views = make([]models.PhotoView, 0, len(photos))
	for _, p := range photos {
		likes := likesByPhoto[p.ID]
		comments := make([]models.CommentView, 0, len(p.Comments))
		for _, c := range p.Comments {
			comments = append(comments, models.CommentView{
				ID:       c.ID,
				Text:     c.Text,
				DateTime: c.DateTime,
				Mentions: nonNil(c.Mentions),
				User:     authors[c.UserID],
			})
		}
		views = append(views, models.PhotoView{
			ID:        p.ID,
			UserID:    p.UserID,
			FileName:  p.FileName,
			DateTime:  p.DateTime,
			Mentions:  nonNil(p.Mentions),
			LikeCount: len(likes),
			Likes:     likes,
			Comments:  comments,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].LikeCount > views[j].LikeCount
	})
	return views, nil
}

// UserDetail returns the newest and the most commented photo of the user.
// Ties go to the photo met first in storage order.
func (s *AggregationService) UserDetail(ctx context.Context, userID string) (detail *models.UserDetail, err error) {
	ctx, span := observability.StartSpan(ctx, "aggregation.user_detail", attribute.String("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	photos, err := s.photos.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return &models.UserDetail{}, nil
	}

	recent, most := &photos[0], &photos[0]
	for i := range photos[1:] {
		p := &photos[i+1]
		if p.DateTime.After(recent.DateTime) {
			recent = p
		}
		if len(p.Comments) > len(most.Comments) {
			most = p
		}
	}

	likesByPhoto, err := s.likesFor(ctx, models.UnionIDs([]string{recent.ID}, []string{most.ID}))
	if err != nil {
		return nil, err
	}

	return &models.UserDetail{
		RecentPhoto: &models.RecentPhoto{
			ID:       recent.ID,
			FileName: recent.FileName,
			DateTime: recent.DateTime,
			Likes:    likesByPhoto[recent.ID],
		},
		MostCommentedPhoto: &models.MostCommentedPhoto{
			ID:           most.ID,
			FileName:     most.FileName,
			CommentCount: len(most.Comments),
			Likes:        likesByPhoto[most.ID],
		},
	}, nil
}

// MentionsOf lists the photos whose mention set contains userID.
func (s *AggregationService) MentionsOf(ctx context.Context, userID string) (out []models.MentionView, err error) {
	ctx, span := observability.StartSpan(ctx, "aggregation.mentions_of", attribute.String("user.id", userID))
	defer func() { observability.EndSpan(span, err) }()

	photos, err := s.photos.FindByMention(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return []models.MentionView{}, nil
	}

	ownerIDs := make([]string, 0, len(photos))
	for _, p := range photos {
		ownerIDs = append(ownerIDs, p.UserID)
	}
	owners, err := s.users.FindByIDs(ctx, models.UnionIDs(nil, ownerIDs))
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(owners))
	for i := range owners {
		names[owners[i].ID] = owners[i].FullName()
	}

	out = make([]models.MentionView, 0, len(photos))
	for _, p := range photos {
		name, ok := names[p.UserID]
		if !ok || name == "" {
			name = unknownOwnerName
		}
		out = append(out, models.MentionView{
			PhotoID:   p.ID,
			FileName:  p.FileName,
			OwnerID:   p.UserID,
			OwnerName: name,
		})
	}
	return out, nil
}

// commentAuthors resolves every distinct commenter with one batch lookup.
// Unresolvable authors map to the zero summary.
func (s *AggregationService) commentAuthors(ctx context.Context, photos []models.Photo) (map[string]models.UserSummary, error) {
	var ids []string
	for _, p := range photos {
		for _, c := range p.Comments {
			ids = append(ids, c.UserID)
		}
	}
	out := make(map[string]models.UserSummary)
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.FindByIDs(ctx, models.UnionIDs(nil, ids))
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// likesFor groups the likes of ids by photo. Every id maps to a non-nil slice.
func (s *AggregationService) likesFor(ctx context.Context, ids []string) (map[string][]models.Like, error) {
	likes, err := s.likes.FindByPhotoIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Like, len(ids))
	for _, id := range ids {
		out[id] = []models.Like{}
	}
	for _, l := range likes {
		out[l.PhotoID] = append(out[l.PhotoID], l)
	}
	return out, nil
}

func photoIDs(photos []models.Photo) []string {
	ids := make([]string, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func nonNil(ids models.IDList) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
