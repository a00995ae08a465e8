package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the identity store: accounts, credentials, refresh tokens
// and profiles.
type UserService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	tokenRepo  *repository.RefreshTokenRepository
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewUserService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, tokenRepo *repository.RefreshTokenRepository, refreshTTL time.Duration, logger *logger.Logger) *UserService {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		tokenRepo:  tokenRepo,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignatureDraft struct {
	Name  string `json:"name" validate:"max=100"`
	Brand string `json:"brand" validate:"max=100"`
}

// UpdateProfileRequest changes only the fields that are present. An empty
// signature name clears the signature fragrance.
type UpdateProfileRequest struct {
	Bio                *string         `json:"bio" validate:"omitempty,max=500"`
	ProfileImageURL    *string         `json:"profile_image_url" validate:"omitempty,url,max=500"`
	CoverImageURL      *string         `json:"cover_image_url" validate:"omitempty,url,max=500"`
	SignatureFragrance *SignatureDraft `json:"signature_fragrance"`
}

// Session is what a successful login or refresh hands back to the transport
// layer, which adds the access token.
type Session struct {
	User             *models.User `json:"user"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("username or email already registered: %w", ErrConflict)
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	login := strings.TrimSpace(req.Login)
	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, login)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	if err := s.userRepo.TouchLastActive(ctx, user.ID, now); err != nil {
		s.logger.WithError(err).Error("Failed to update last active time")
	} else {
		user.LastActiveAt = &now
	}

	token, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return &Session{User: user, RefreshToken: token.Token, RefreshExpiresAt: token.ExpiresAt}, nil
}

// Refresh exchanges a live refresh token for a new one. Each token can be
// exchanged once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, invalidField("refresh_token", "is required")
	}

	current, err := s.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if current == nil || !current.Usable(time.Now()) {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, current.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	next, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	rotated, err := s.tokenRepo.Rotate(ctx, refreshToken, next)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	if err := s.userRepo.TouchLastActive(ctx, user.ID, now); err != nil {
		s.logger.WithError(err).Error("Failed to update last active time")
	}

	return &Session{User: user, RefreshToken: next.Token, RefreshExpiresAt: next.ExpiresAt}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenRepo.Revoke(ctx, refreshToken)
}

func (s *UserService) newRefreshToken(userID uuid.UUID) (*models.RefreshToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &models.RefreshToken{
		UserID:    userID,
		Token:     hex.EncodeToString(buf),
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}
	return user, nil
}

// GetProfile returns the user with live counts. viewerID may be empty.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID string) (*models.UserProfile, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	viewer, err := parseOptionalID("viewer_id", viewerID)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user}
	if profile.FollowersCount, err = s.followRepo.CountFollowers(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = s.followRepo.CountFollowing(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.PostsCount, err = s.userRepo.CountPosts(ctx, user.ID); err != nil {
		return nil, err
	}
	if viewer != uuid.Nil && viewer != user.ID {
		if profile.IsFollowing, err = s.followRepo.Exists(ctx, viewer, user.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.ProfileImageURL != nil {
		fields["profile_image_url"] = strings.TrimSpace(*req.ProfileImageURL)
	}
	if req.CoverImageURL != nil {
		fields["cover_image_url"] = strings.TrimSpace(*req.CoverImageURL)
	}
	if sig := req.SignatureFragrance; sig != nil {
		name := strings.TrimSpace(sig.Name)
		brand := strings.TrimSpace(sig.Brand)
		if name == "" {
			brand = ""
		}
		fields["signature_name"] = name
		fields["signature_brand"] = brand
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}

	if err := s.userRepo.UpdateProfile(ctx, id, fields); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", id).Info("User profile updated successfully")
	return updated, nil
}
