package repository

import (
	"context"
	"errors"
	"fmt"

	"photoshare/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names used by the document store.
const (
	usersCollection      = "users"
	photosCollection     = "photos"
	likesCollection      = "likes"
	schemaInfoCollection = "schema_infos"
)

// EnsureIndexes creates the indexes the document store relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "login_name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		photosCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date_time", Value: 1}}},
			{Keys: bson.D{{Key: "mentions", Value: 1}}},
			{Keys: bson.D{{Key: "comments._id", Value: 1}}},
			{Keys: bson.D{{Key: "comments.user_id", Value: 1}}},
		},
		likesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "photo_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "photo_id", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// NewMongoStore wires the document-store repositories and ensures their indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	if err := EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &Store{
		Users:   &mongoUserRepository{coll: db.Collection(usersCollection)},
		Photos:  &mongoPhotoRepository{coll: db.Collection(photosCollection)},
		Likes:   &mongoLikeRepository{coll: db.Collection(likesCollection)},
		Schema:  &mongoSchemaInfoRepository{coll: db.Collection(schemaInfoCollection)},
		Ping:    func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
		Close:   func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
		Backend: "mongo",
	}, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func normalizePhoto(p *models.Photo) {
	if p.Mentions == nil {
		p.Mentions = models.IDList{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].PhotoID = p.ID
		if p.Comments[i].Mentions == nil {
			p.Comments[i].Mentions = models.IDList{}
		}
	}
}

// mongoUserRepository

type mongoUserRepository struct {
	coll *mongo.Collection
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowUTC()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewValidationError("The login name already exists, please choose a different login name")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *mongoUserRepository) GetByLoginName(ctx context.Context, loginName string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"login_name": loginName}).Decode(&user); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *mongoUserRepository) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *mongoUserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// mongoPhotoRepository keeps the comment thread embedded in the photo document.

type mongoPhotoRepository struct {
	coll *mongo.Collection
}

func (r *mongoPhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if photo.ID == "" {
		photo.ID = models.NewID()
	}
	normalizePhoto(photo)
	if _, err := r.coll.InsertOne(ctx, photo); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoPhotoRepository) findOne(ctx context.Context, filter bson.M, resource, id string) (*models.Photo, error) {
	var photo models.Photo
	if err := r.coll.FindOne(ctx, filter).Decode(&photo); err != nil {
		if isNoDocuments(err) {
			return nil, models.NewNotFoundError(resource, id)
		}
		return nil, models.NewInternalError(err)
	}
	normalizePhoto(&photo)
	return &photo, nil
}

func (r *mongoPhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "Photo", id)
}

func (r *mongoPhotoRepository) find(ctx context.Context, filter bson.M) ([]models.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_time", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	photos := []models.Photo{}
	if err := cur.All(ctx, &photos); err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range photos {
		normalizePhoto(&photos[i])
	}
	return photos, nil
}

func (r *mongoPhotoRepository) FindByOwner(ctx context.Context, userID string) ([]models.Photo, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *mongoPhotoRepository) FindByMention(ctx context.Context, userID string) ([]models.Photo, error) {
	return r.find(ctx, bson.M{"mentions": userID})
}

func (r *mongoPhotoRepository) FindByCommentID(ctx context.Context, commentID string) (*models.Photo, error) {
	return r.findOne(ctx, bson.M{"comments._id": commentID}, "Comment", commentID)
}

func (r *mongoPhotoRepository) FindCommentedBy(ctx context.Context, userID string) ([]models.Photo, error) {
	return r.find(ctx, bson.M{"comments.user_id": userID})
}

func (r *mongoPhotoRepository) AddComment(ctx context.Context, photoID string, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	comment.PhotoID = photoID
	if comment.Mentions == nil {
		comment.Mentions = models.IDList{}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": photoID}, bson.M{"$push": bson.M{"comments": comment}})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Photo", photoID)
	}
	return nil
}

func (r *mongoPhotoRepository) RemoveComment(ctx context.Context, photoID, commentID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": photoID, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

func (r *mongoPhotoRepository) RemoveCommentsByUser(ctx context.Context, photoID, userID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": photoID},
		bson.M{"$pull": bson.M{"comments": bson.M{"user_id": userID}}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoPhotoRepository) AddMentions(ctx context.Context, photoID string, ids []string) (models.IDList, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var photo models.Photo
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": photoID},
		bson.M{"$addToSet": bson.M{"mentions": bson.M{"$each": ids}}},
		opts,
	).Decode(&photo)
	if err != nil {
		if isNoDocuments(err) {
			return nil, models.NewNotFoundError("Photo", photoID)
		}
		return nil, models.NewInternalError(err)
	}
	normalizePhoto(&photo)
	return photo.Mentions, nil
}

func (r *mongoPhotoRepository) AddCommentMentions(ctx context.Context, commentID string, ids []string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"comments._id": commentID},
		bson.M{"$addToSet": bson.M{"comments.$.mentions": bson.M{"$each": ids}}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}

func (r *mongoPhotoRepository) SetMentions(ctx context.Context, photoID string, ids models.IDList) error {
	if ids == nil {
		ids = models.IDList{}
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": photoID}, bson.M{"$set": bson.M{"mentions": ids}}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoPhotoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Photo", id)
	}
	return nil
}

func (r *mongoPhotoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// mongoLikeRepository relies on the unique (user_id, photo_id) index.

type mongoLikeRepository struct {
	coll *mongo.Collection
}

func (r *mongoLikeRepository) Exists(ctx context.Context, userID, photoID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "photo_id": photoID})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *mongoLikeRepository) Create(ctx context.Context, userID, photoID string) error {
	like := models.Like{UserID: userID, PhotoID: photoID, CreatedAt: nowUTC()}
	if _, err := r.coll.InsertOne(ctx, like); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoLikeRepository) Delete(ctx context.Context, userID, photoID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "photo_id": photoID}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoLikeRepository) FindByPhotoIDs(ctx context.Context, photoIDs []string) ([]models.Like, error) {
	if len(photoIDs) == 0 {
		return []models.Like{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"photo_id": bson.M{"$in": photoIDs}}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	likes := []models.Like{}
	if err := cur.All(ctx, &likes); err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes, nil
}

func (r *mongoLikeRepository) DeleteByPhoto(ctx context.Context, photoID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"photo_id": photoID}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoLikeRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// mongoSchemaInfoRepository

type mongoSchemaInfoRepository struct {
	coll *mongo.Collection
}

func (r *mongoSchemaInfoRepository) Get(ctx context.Context) (*models.SchemaInfo, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "load_date_time", Value: -1}})
	var info models.SchemaInfo
	if err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&info); err != nil {
		if isNoDocuments(err) {
			return nil, models.NewNotFoundError("SchemaInfo", "")
		}
		return nil, models.NewInternalError(err)
	}
	return &info, nil
}

func (r *mongoSchemaInfoRepository) Ensure(ctx context.Context, version string) (*models.SchemaInfo, error) {
	info, err := r.Get(ctx)
	if err == nil {
		return info, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	created := &models.SchemaInfo{ID: models.NewID(), Version: version, LoadDateTime: nowUTC()}
	if _, err := r.coll.InsertOne(ctx, created); err != nil {
		return nil, models.NewInternalError(err)
	}
	return created, nil
}

func (r *mongoSchemaInfoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
