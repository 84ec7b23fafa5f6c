package service

import (
	"context"
	"fmt"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/repository"
	"photoshare/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SchemaVersion stamps the SchemaInfo record written by the seeder.
const SchemaVersion = "1.0"

type UserService struct {
	users  repository.UserRepository
	photos repository.PhotoRepository
	schema repository.SchemaInfoRepository
}

type RegisterInput struct {
	LoginName   string `json:"login_name"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Occupation  string `json:"occupation"`
}

func NewUserService(users repository.UserRepository, photos repository.PhotoRepository, schema repository.SchemaInfoRepository) *UserService {
	return &UserService{users: users, photos: photos, schema: schema}
}

// Register creates an account. The password is stored as a bcrypt hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.LoginName = strings.TrimSpace(in.LoginName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if !validation.AllNonEmpty(in.FirstName, in.LastName, in.Password) {
		return nil, models.NewValidationError("The first_name, last_name, and password must be non-empty strings")
	}
	if err := validation.ValidateLoginName(in.LoginName); err != nil {
		return nil, models.NewValidationError(capitalize(err.Error()))
	}
	for _, name := range []string{in.FirstName, in.LastName} {
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, models.NewValidationError(capitalize(err.Error()))
		}
	}

	existing, err := s.users.GetByLoginName(ctx, in.LoginName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("The login name already exists, please choose a different login name")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		LoginName:   in.LoginName,
		Password:    string(hashed),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		Occupation:  strings.TrimSpace(in.Occupation),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a login name and password pair.
func (s *UserService) Authenticate(ctx context.Context, loginName, password string) (*models.User, error) {
	loginName = strings.TrimSpace(loginName)
	if loginName == "" || password == "" {
		return nil, models.NewValidationError("Login name and password are required.")
	}

	user, err := s.users.GetByLoginName(ctx, loginName)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewValidationError(fmt.Sprintf("Login name %q does not exist. Please try again.", loginName))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewValidationError("Password is incorrect. Please try again.")
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	id, err := models.ParseID(id, "ID")
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// SchemaInfo returns the schema record. A missing record is an internal error.
func (s *UserService) SchemaInfo(ctx context.Context) (*models.SchemaInfo, error) {
	info, err := s.schema.Get(ctx)
	if models.IsCode(err, models.CodeNotFound) {
		return nil, &models.AppError{Code: models.CodeInternal, Message: "Missing SchemaInfo", Err: err}
	}
	return info, err
}

// EnsureSchemaInfo creates the schema record when the store has none.
func (s *UserService) EnsureSchemaInfo(ctx context.Context) (*models.SchemaInfo, error) {
	return s.schema.Ensure(ctx, SchemaVersion)
}

func (s *UserService) Counts(ctx context.Context) (*models.Counts, error) {
	var counts models.Counts
	var err error
	if counts.User, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if counts.Photo, err = s.photos.Count(ctx); err != nil {
		return nil, err
	}
	if counts.SchemaInfo, err = s.schema.Count(ctx); err != nil {
		return nil, err
	}
	return &counts, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
