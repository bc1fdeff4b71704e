package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/auth"
	"github.com/JadeHendricks/mern-devconnector/internal/config"
	"github.com/JadeHendricks/mern-devconnector/internal/domain/user"
	"github.com/JadeHendricks/mern-devconnector/internal/security"
)

const storeTimeout = 3 * time.Second

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthService struct {
	users      UserStore
	tokens     *auth.Manager
	bcryptCost int
	log        *slog.Logger
}

func NewAuthService(users UserStore, tokens *auth.Manager, bcryptCost int, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// Register creates the user and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = user.NormalizeEmail(req.Email)

	if err := Validate(req); err != nil {
		return "", err
	}

	hash, err := security.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u := user.New(req.Name, req.Email, hash, security.GravatarURL(req.Email))

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	created, err := s.users.Create(cctx, u)
	if err != nil {
		if !errors.Is(err, user.ErrEmailTaken) {
			s.log.ErrorContext(ctx, "create user failed", "err", err)
		}
		return "", err
	}

	return s.issue(created.ID)
}

// Login answers ErrInvalidCredentials for both an unknown email and a wrong
// password.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (string, error) {
	req.Email = user.NormalizeEmail(req.Email)

	if err := Validate(req); err != nil {
		return "", err
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	found, err := s.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", auth.ErrInvalidCredentials
		}
		s.log.ErrorContext(ctx, "lookup user failed", "err", err)
		return "", err
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		return "", auth.ErrInvalidCredentials
	}

	return s.issue(found.ID)
}

// Authenticate verifies the token and yields its user id. Tokens are not
// revoked server side, so an account deleted after issue still verifies
// until the token expires.
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return "", err
	}

	return claims.UserID(), nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (user.User, error) {
	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	u, err := s.users.GetByID(cctx, userID)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.log.ErrorContext(ctx, "get current user failed", "user_id", userID, "err", err)
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *AuthService) issue(userID string) (string, error) {
	tok, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}
