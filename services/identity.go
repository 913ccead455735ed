package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// IdentityService maps bearer tokens to requesters.
// Role is immutable and users are never deleted, so a cached identity stays correct.
type IdentityService struct {
	tokens *TokenService
	users  store.UserRepository
	cache  IdentityCache
	logger *logrus.Logger
}

// NewIdentityService creates an identity resolver; cache may be nil
func NewIdentityService(tokens *TokenService, users store.UserRepository, cache IdentityCache, logger *logrus.Logger) *IdentityService {
	if logger == nil {
		logger = logrus.New()
	}
	return &IdentityService{tokens: tokens, users: users, cache: cache, logger: logger}
}

// Resolve verifies token and returns the requester it identifies.
// Bad tokens and tokens for unknown users yield authz.ErrUnauthenticated.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*authz.Requester, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrUnauthenticated, err)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.WithError(err).Warn("Identity cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", authz.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	requester := &authz.Requester{ID: user.ID, Role: user.Role, Name: user.Name, Email: user.Email}
	if s.cache != nil {
		if err := s.cache.Set(ctx, requester); err != nil {
			s.logger.WithError(err).Warn("Identity cache write failed")
		}
	}
	return requester, nil
}

func dbRole(role string) db.UserRole {
	if db.UserRole(role) == db.UserRoleAdmin {
		return db.UserRoleAdmin
	}
	return db.UserRoleUser
}
