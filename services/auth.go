package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/models"
	"github.com/vnkhanh/cogload-backend/repos"
	"github.com/vnkhanh/cogload-backend/utils"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	users  repos.UserRepo
	tokens *utils.TokenIssuer
	log    *logger.Logger
}

func NewAuthService(users repos.UserRepo, tokens *utils.TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log.With("service", "AuthService")}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, false)
}

// CreateAdmin is used by the management CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, true)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, isAdmin bool) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len(username) < 3 || len(username) > 80 {
		return nil, apperr.Validation("username must be between 3 and 80 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 120 {
		return nil, apperr.Validation("invalid email address")
	}
	if len(in.Password) < 6 {
		return nil, apperr.Validation("password must be at least 6 characters")
	}

	taken, err := s.users.UsernameOrEmailExists(ctx, nil, username, email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("check user: %w", err))
	}
	if taken {
		return nil, apperr.Conflict("user with that username or email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		IsAdmin:      isAdmin,
	}
	if err := s.users.Create(ctx, nil, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("user with that username or email already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	s.log.Info("user created", "user_id", user.ID, "is_admin", isAdmin)
	return user, nil
}

// Login accepts a username or an email as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	user, err := s.users.GetByLogin(ctx, nil, identifier)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized("invalid username or password")
		}
		return nil, apperr.Internal(fmt.Errorf("load user: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid username or password")
	}
	token, err := s.tokens.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("sign token: %w", err))
	}
	return &LoginResult{Token: token, ExpiresIn: int(s.tokens.TTL().Seconds()), User: user}, nil
}

// Authenticate resolves a bearer token to the stored user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized("user not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load user: %w", err))
	}
	return user, nil
}
