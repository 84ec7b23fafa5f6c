package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/storage"
	"photoshare/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Publisher delivers realtime events to a user.
type Publisher interface {
	Publish(ctx context.Context, recipientID string, event models.Event) error
}

// MutationService applies writes while keeping mentions, likes and comments consistent.
type MutationService struct {
	users     repository.UserRepository
	photos    repository.PhotoRepository
	likes     repository.LikeRepository
	files     storage.PhotoStore
	publisher Publisher
	now       func() time.Time
}

func NewMutationService(
	users repository.UserRepository,
	photos repository.PhotoRepository,
	likes repository.LikeRepository,
	files storage.PhotoStore,
	publisher Publisher,
) *MutationService {
	return &MutationService{
		users:     users,
		photos:    photos,
		likes:     likes,
		files:     files,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type AddCommentInput struct {
	PhotoID  string
	AuthorID string
	Text     string
	// Mentions are user ids referenced by the comment.
	Mentions []string
}

// AddComment appends a comment to the photo's thread. Mentions carried by the
// comment are also unioned into the photo's mention set.
func (s *MutationService) AddComment(ctx context.Context, in AddCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "mutation.add_comment", attribute.String("photo.id", in.PhotoID))
	defer func() { observability.EndSpan(span, err) }()

	// Trimming only decides blankness; the text is stored as written.
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Empty comment is not allowed")
	}
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, models.NewValidationError("Comment is too long")
	}
	photoID, err := models.ParseID(in.PhotoID, "photo ID")
	if err != nil {
		return nil, err
	}
	mentions, err := models.ParseIDs(in.Mentions, "user ID")
	if err != nil {
		return nil, err
	}

	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{
		UserID:   in.AuthorID,
		Text:     in.Text,
		DateTime: s.now(),
		Mentions: models.IDList(mentions),
	}
	if err := s.photos.AddComment(ctx, photoID, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()

	if len(mentions) > 0 {
		if _, err := s.photos.AddMentions(ctx, photoID, mentions); err != nil {
			return nil, err
		}
		observability.MentionsRegistered.Add(float64(len(mentions)))
	}

	s.notify(ctx, photo.UserID, in.AuthorID, models.EventComment, photoID, comment.ID)
	for _, id := range mentions {
		s.notify(ctx, id, in.AuthorID, models.EventMention, photoID, comment.ID)
	}
	return comment, nil
}

// RegisterMentions unions userIDs into the photo's mention set and returns the
// new set. The ids are also recorded on the caller's latest comment on the
// photo so that later recomputation keeps them.
func (s *MutationService) RegisterMentions(ctx context.Context, photoID, callerID string, userIDs []string) (mentions models.IDList, err error) {
	ctx, span := observability.StartSpan(ctx, "mutation.register_mentions", attribute.String("photo.id", photoID))
	defer func() { observability.EndSpan(span, err) }()

	photoID, err = models.ParseID(photoID, "photo ID")
	if err != nil {
		return nil, err
	}
	ids, err := models.ParseIDs(userIDs, "user ID")
	if err != nil {
		return nil, err
	}

	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	mentions, err = s.photos.AddMentions(ctx, photoID, ids)
	if err != nil {
		return nil, err
	}
	observability.MentionsRegistered.Add(float64(len(ids)))

	if latest := photo.LatestCommentBy(callerID); latest != nil && len(ids) > 0 {
		if err := s.photos.AddCommentMentions(ctx, latest.ID, ids); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		s.notify(ctx, id, callerID, models.EventMention, photoID, "")
	}
	return mentions, nil
}

// DeleteComment removes a comment authored by callerID and recomputes the
// photo's mentions from the comments that remain.
func (s *MutationService) DeleteComment(ctx context.Context, commentID, callerID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "mutation.delete_comment", attribute.String("comment.id", commentID))
	defer func() { observability.EndSpan(span, err) }()

	commentID, err = models.ParseID(commentID, "comment ID")
	if err != nil {
		return err
	}
	photo, err := s.photos.FindByCommentID(ctx, commentID)
	if err != nil {
		return err
	}

	remaining := make([]models.Comment, 0, len(photo.Comments))
	var target *models.Comment
	for i := range photo.Comments {
		if photo.Comments[i].ID == commentID {
			target = &photo.Comments[i]
			continue
		}
		remaining = append(remaining, photo.Comments[i])
	}
	if target == nil {
		return models.NewNotFoundError("Comment", commentID)
	}
	if target.UserID != callerID {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.photos.RemoveComment(ctx, photo.ID, commentID); err != nil {
		return err
	}
	photo.Comments = remaining
	if err := s.photos.SetMentions(ctx, photo.ID, photo.RecomputeMentions()); err != nil {
		return err
	}
	observability.Deletions.WithLabelValues("comment").Inc()
	return nil
}

// DeletePhoto deletes a photo owned by callerID together with its likes,
// comments and stored file.
func (s *MutationService) DeletePhoto(ctx context.Context, photoID, callerID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "mutation.delete_photo", attribute.String("photo.id", photoID))
	defer func() { observability.EndSpan(span, err) }()

	photoID, err = models.ParseID(photoID, "photo ID")
	if err != nil {
		return err
	}
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.UserID != callerID {
		return models.NewForbiddenError("You can only delete your own photos")
	}
	return s.deletePhoto(ctx, photo)
}

// DeleteAccount removes the caller, their photos, likes and comments. Photos
// that lose comments get their mentions recomputed.
func (s *MutationService) DeleteAccount(ctx context.Context, callerID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "mutation.delete_account", attribute.String("user.id", callerID))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.users.GetByID(ctx, callerID); err != nil {
		return err
	}

	owned, err := s.photos.FindByOwner(ctx, callerID)
	if err != nil {
		return err
	}
	for i := range owned {
		if err := s.deletePhoto(ctx, &owned[i]); err != nil {
			return err
		}
	}

	commented, err := s.photos.FindCommentedBy(ctx, callerID)
	if err != nil {
		return err
	}
	for i := range commented {
		p := &commented[i]
		if err := s.photos.RemoveCommentsByUser(ctx, p.ID, callerID); err != nil {
			return err
		}
		p.Comments = p.WithoutCommentsBy(callerID)
		if err := s.photos.SetMentions(ctx, p.ID, p.RecomputeMentions()); err != nil {
			return err
		}
	}

	if err := s.likes.DeleteByUser(ctx, callerID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, callerID); err != nil {
		return err
	}
	observability.Deletions.WithLabelValues("user").Inc()
	return nil
}

// ToggleLike flips whether userID likes the photo and returns the new state.
func (s *MutationService) ToggleLike(ctx context.Context, photoID, userID string) (state *models.LikeState, err error) {
	ctx, span := observability.StartSpan(ctx, "mutation.toggle_like", attribute.String("photo.id", photoID))
	defer func() { observability.EndSpan(span, err) }()

	photoID, err = models.ParseID(photoID, "photo ID")
	if err != nil {
		return nil, err
	}
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}

	liked, err := s.likes.Exists(ctx, userID, photoID)
	if err != nil {
		return nil, err
	}
	if liked {
		err = s.likes.Delete(ctx, userID, photoID)
	} else {
		err = s.likes.Create(ctx, userID, photoID)
	}
	if err != nil {
		return nil, err
	}

	state, err = s.likeState(ctx, photoID, userID)
	if err != nil {
		return nil, err
	}
	if state.Liked {
		observability.LikeToggles.WithLabelValues("liked").Inc()
		s.notify(ctx, photo.UserID, userID, models.EventLike, photoID, "")
	} else {
		observability.LikeToggles.WithLabelValues("unliked").Inc()
	}
	return state, nil
}

// LikeState reports the like state of a photo as seen by userID.
func (s *MutationService) LikeState(ctx context.Context, photoID, userID string) (*models.LikeState, error) {
	photoID, err := models.ParseID(photoID, "photo ID")
	if err != nil {
		return nil, err
	}
	if _, err := s.photos.GetByID(ctx, photoID); err != nil {
		return nil, err
	}
	return s.likeState(ctx, photoID, userID)
}

func (s *MutationService) likeState(ctx context.Context, photoID, userID string) (*models.LikeState, error) {
	likes, err := s.likes.FindByPhotoIDs(ctx, []string{photoID})
	if err != nil {
		return nil, err
	}
	state := &models.LikeState{PhotoID: photoID, Likes: likes, LikeCount: len(likes)}
	for _, l := range likes {
		if l.UserID == userID {
			state.Liked = true
			break
		}
	}
	return state, nil
}

func (s *MutationService) deletePhoto(ctx context.Context, photo *models.Photo) error {
	if err := s.likes.DeleteByPhoto(ctx, photo.ID); err != nil {
		return err
	}
	if err := s.photos.Delete(ctx, photo.ID); err != nil {
		return err
	}
	observability.Deletions.WithLabelValues("photo").Inc()

	if s.files != nil {
		if err := s.files.Delete(ctx, photo.FileName); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete photo file",
				slog.String("photo_id", photo.ID),
				slog.String("file_name", photo.FileName),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// notify publishes an event unless the recipient is the actor. Failures are logged only.
func (s *MutationService) notify(ctx context.Context, recipientID, actorID, eventType, photoID, commentID string) {
	if s.publisher == nil || recipientID == "" || recipientID == actorID {
		return
	}
	event := models.Event{
		Type:      eventType,
		PhotoID:   photoID,
		ActorID:   actorID,
		CommentID: commentID,
		CreatedAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, recipientID, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("type", eventType),
			slog.String("recipient_id", recipientID),
			slog.String("error", err.Error()))
	}
}
