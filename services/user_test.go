package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

func newUserService() (*UserService, *TokenService) {
	tokens := NewTokenService("test-secret", time.Hour)
	return NewUserService(store.NewMemoryStore().Users, tokens, quietLogger()), tokens
}

func TestUserService_Register(t *testing.T) {
	svc, tokens := newUserService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "Ada", LastName: "Lovelace", Email: " Ada@Example.COM ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", result.Email)
	assert.Equal(t, db.UserRoleUser, result.Role)
	assert.NotEmpty(t, result.ID)
	assert.NotEqual(t, "s3cret", result.PasswordHash)

	userID, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.ID, userID)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ada", LastName: "L", Email: "ADA@example.com", Password: "x"})
	assert.ErrorIs(t, err, authz.ErrAlreadyExists)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc, _ := newUserService()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{LastName: "L", Email: "a@b.c", Password: "p"}},
		{"missing last name", RegisterInput{Name: "N", Email: "a@b.c", Password: "p"}},
		{"bad email", RegisterInput{Name: "N", LastName: "L", Email: "nope", Password: "p"}},
		{"missing password", RegisterInput{Name: "N", LastName: "L", Email: "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, authz.ErrInvalidInput)
		})
	}
}

func TestUserService_RegisterLookupFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	svc := NewUserService(store.NewSQLUserRepository(conn), NewTokenService("test-secret", time.Hour), quietLogger())

	mock.ExpectQuery("SELECT COUNT").WithArgs("ada@example.com").
		WillReturnError(errors.New("connection reset"))

	_, err = svc.Register(context.Background(), RegisterInput{Name: "Ada", LastName: "L", Email: "ada@example.com", Password: "pw"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, authz.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "connection reset")

	// no insert was attempted
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Login(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.ID)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "ada@example.com"})
	assert.ErrorIs(t, err, authz.ErrInvalidInput)
}

func TestUserService_Profile(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)

	user, err := svc.Profile(ctx, &authz.Requester{ID: registered.ID})
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", user.LastName)

	_, err = svc.Profile(ctx, &authz.Requester{ID: "ghost"})
	assert.ErrorIs(t, err, authz.ErrNotFound)

	_, err = svc.Profile(ctx, nil)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}
