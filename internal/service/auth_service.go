package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bryan-besnyi/next-doorcard-sub000/config"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/dto"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
	"github.com/bryan-besnyi/next-doorcard-sub000/internal/repository"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/jwt"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrInvalidRefresh     = errors.New("refresh token is invalid or revoked")
	ErrUserNotFound       = errors.New("user does not exist")
)

// AuthService is the session interface. Credentials are campus accounts;
// sessions are a JWT pair with a Redis-backed revocation list.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService creates an AuthService instance. rdb may be nil, in which
// case logout revocation degrades to expiry-only.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user, req.RememberMe)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefresh
	}

	if s.rdb != nil {
		revoked, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("blacklist check failed", zap.Error(err))
		} else if revoked {
			return nil, ErrInvalidRefresh
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		return nil, err
	}

	// Rotate: revoke the presented refresh token before issuing a new pair.
	if s.rdb != nil && claims.ExpiresAt != nil {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Warn("revoking refresh token failed", zap.Error(err))
		}
	}

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		// An expired or mangled token needs no revocation.
		return nil
	}

	if s.rdb != nil && claims.ExpiresAt != nil {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Error("blacklisting token failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("user lookup failed", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ── internal helpers ──

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.College)
	if err != nil {
		s.logger.Error("generating access token failed", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.College, rememberMe)
	if err != nil {
		s.logger.Error("generating refresh token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:       user.UserID,
		Name:     user.Name,
		Email:    user.Email,
		Username: user.Username,
		College:  user.College,
		Role:     user.Role,
	}
}
