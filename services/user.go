package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserService handles registration, login and profiles
type UserService struct {
	users  store.UserRepository
	tokens *TokenService
	logger *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(users store.UserRepository, tokens *TokenService, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &UserService{users: users, tokens: tokens, logger: logger}
}

// RegisterInput represents input for creating an account
type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	LastName string `json:"last_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginInput represents login credentials
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is the account plus a freshly issued token
type AuthResult struct {
	db.User
	Token string `json:"token"`
}

// Register creates a user account. Accounts always start with the user role.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	switch {
	case name == "":
		return nil, authz.Invalid("name is required")
	case lastName == "":
		return nil, authz.Invalid("last_name is required")
	case validate.Var(email, "required,email") != nil:
		return nil, authz.Invalid("a valid email is required")
	case input.Password == "":
		return nil, authz.Invalid("password is required")
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user already exists", authz.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &db.User{
		Name:         name,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         db.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateRecord) {
			return nil, fmt.Errorf("%w: user already exists", authz.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return s.issue(user)
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, authz.Invalid("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Debug("Login rejected: password mismatch")
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Profile returns the requester's own account
func (s *UserService) Profile(ctx context.Context, r *authz.Requester) (*db.User, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, r.ID)
	if err != nil {
		return nil, storeError(err, kindUser, r.ID)
	}
	return user, nil
}

func (s *UserService) issue(user *db.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: *user, Token: token}, nil
}
