package service

import (
	"context"
	"testing"

	"photoshare/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, RegisterInput{
		LoginName: "alice",
		Password:  "secret",
		FirstName: " Alice ",
		LastName:  "Ng",
		Location:  "Oslo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FirstName)
	assert.NotEqual(t, "secret", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret")))

	stored, err := f.store.Users.GetByLoginName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Oslo", stored.Location)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{LoginName: "taken", Password: "pw", FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      RegisterInput
		message string
	}{
		{
			name:    "missing password",
			in:      RegisterInput{LoginName: "x", FirstName: "A", LastName: "B"},
			message: "The first_name, last_name, and password must be non-empty strings",
		},
		{
			name:    "blank first name",
			in:      RegisterInput{LoginName: "x", Password: "pw", FirstName: "  ", LastName: "B"},
			message: "The first_name, last_name, and password must be non-empty strings",
		},
		{
			name:    "missing login name",
			in:      RegisterInput{Password: "pw", FirstName: "A", LastName: "B"},
			message: "Login name is required",
		},
		{
			name:    "duplicate login name",
			in:      RegisterInput{LoginName: "taken", Password: "pw", FirstName: "A", LastName: "B"},
			message: "The login name already exists, please choose a different login name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.in)
			assertCode(t, err, models.CodeValidation)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.users.Register(ctx, RegisterInput{LoginName: "alice", Password: "secret", FirstName: "Alice", LastName: "Ng"})
	require.NoError(t, err)

	user, err := f.users.Authenticate(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = f.users.Authenticate(ctx, "alice", "wrong")
	assertCode(t, err, models.CodeValidation)
	assert.Equal(t, "Password is incorrect. Please try again.", err.Error())

	_, err = f.users.Authenticate(ctx, "nobody", "secret")
	assertCode(t, err, models.CodeValidation)
	assert.Equal(t, `Login name "nobody" does not exist. Please try again.`, err.Error())

	_, err = f.users.Authenticate(ctx, "", "")
	assert.Equal(t, "Login name and password are required.", err.Error())
}

func TestUserService_ListAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	zed := f.user(t, "zed", "Zed", "Young")
	amy := f.user(t, "amy", "Amy", "Adams")

	list, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{amy.Summary(), zed.Summary()}, list)

	profile, err := f.users.GetUser(ctx, amy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adams", profile.LastName)

	_, err = f.users.GetUser(ctx, "nope")
	assertCode(t, err, models.CodeValidation)
	assert.Equal(t, "Invalid ID format", err.Error())

	_, err = f.users.GetUser(ctx, uuid.NewString())
	assertCode(t, err, models.CodeNotFound)
}

func TestUserService_SchemaInfoAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.SchemaInfo(ctx)
	assertCode(t, err, models.CodeInternal)
	assert.Equal(t, "Missing SchemaInfo", err.(*models.AppError).Message)

	created, err := f.users.EnsureSchemaInfo(ctx)
	require.NoError(t, err)
	info, err := f.users.SchemaInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, info.ID)
	assert.Equal(t, SchemaVersion, info.Version)

	alice := f.user(t, "alice", "Alice", "Ng")
	f.photo(t, alice, "p.jpg", info.LoadDateTime)

	counts, err := f.users.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Counts{User: 1, Photo: 1, SchemaInfo: 1}, counts)
}
