package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/auth"
	"github.com/dmitrijs2005/classdocs/internal/server/catalog"
	"github.com/dmitrijs2005/classdocs/internal/server/config"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/google/uuid"
)

// UserService registers users and issues their access tokens. Credential
// checks live in front of the server; a registered user gets a token
// straight away.
type UserService struct {
	catalog                     catalog.Catalog
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(cat catalog.Catalog, cfg *config.Config) *UserService {
	return &UserService{
		catalog:                     cat,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *UserService) Register(ctx context.Context, name string, role models.Role) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("empty user name: %w", common.ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, "", fmt.Errorf("unknown role %q: %w", role, common.ErrInvalidInput)
	}

	user, err := s.catalog.CreateUser(ctx, &models.User{ID: uuid.NewString(), Name: name, Role: role})
	if err != nil {
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) IssueToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", common.ErrorInternal, err)
	}
	return token, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if err := validateID("user", id); err != nil {
		return nil, err
	}
	return s.catalog.GetUser(ctx, id)
}
