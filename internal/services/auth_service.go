package services

import (
	"context"
	"strings"

	"designhub_backend/internal/auth"
	"designhub_backend/internal/logger"
	"designhub_backend/internal/models"
	"designhub_backend/internal/repositories"
	"designhub_backend/internal/services/dto"
	"designhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.SessionResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.SessionResponse, error)
	GetCurrentUser(ctx context.Context, db *gorm.DB, actor auth.Principal) (*dto.UserResponse, error)
	// EnsureAdmin создаёт первого администратора, если в системе его ещё нет
	EnsureAdmin(ctx context.Context, db *gorm.DB, name, email, password string) error
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repositories.UserRepository, tokens *auth.TokenManager) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register - регистрация клиента или дизайнера, сразу открывает сессию
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.SessionResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.FieldError("password", err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		return nil, handleDomainError(err)
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)
	return s.newSession(user)
}

func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, handleDomainError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Login failed: wrong password", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.newSession(user)
}

func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, db *gorm.DB, actor auth.Principal) (*dto.UserResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperrors.ErrSessionRequired
	}
	user, err := s.userRepo.FindByID(db, actor.UserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			// токен пережил пользователя
			return nil, apperrors.ErrSessionRequired.WithError(err)
		}
		return nil, handleDomainError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, db *gorm.DB, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	exists, err := s.userRepo.ExistsByRole(db, models.UserRoleAdmin)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.UserRoleAdmin}
	if err := s.userRepo.Create(db, admin); err != nil {
		return handleDomainError(err)
	}

	logger.CtxInfo(ctx, "First admin created", "user_id", admin.ID)
	return nil
}

func (s *AuthServiceImpl) newSession(user *models.User) (*dto.SessionResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.SessionResponse{
		User:      dto.NewUserResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
