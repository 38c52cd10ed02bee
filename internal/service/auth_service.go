package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"
	"club-room-booking/pkg/utils"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo      *repository.UserRepository
	auditRepo     *repository.AuditRepository
	allowedDomain string
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository, allowedDomain string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// IsAllowedEmail reports whether email belongs to the organization's domain
func (s *AuthService) IsAllowedEmail(email string) bool {
	if s.allowedDomain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), s.allowedDomain)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindUserByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.audit(user, "user_login", "Logged in")

	return resp, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(refreshToken string) (string, error) {
	token, err := s.userRepo.FindRefreshTokenByHash(utils.HashRefreshToken(refreshToken))
	if err != nil {
		return "", ErrInvalidRefresh
	}

	if time.Now().After(token.ExpiresAt) {
		return "", ErrRefreshExpired
	}

	accessToken, err := utils.GenerateAccessToken(identityOf(&token.User))
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(refreshToken string) error {
	if err := s.userRepo.RevokeRefreshTokenByHash(utils.HashRefreshToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Profile returns the account behind uid
func (s *AuthService) Profile(uid string) (*UserResponse, error) {
	user, err := s.userRepo.FindUserByID(uid)
	if err != nil {
		return nil, err
	}
	resp := userResponse(user)
	return &resp, nil
}

// AuditTrail returns the newest audit entries first, optionally one action only
func (s *AuthService) AuditTrail(action string, limit int) ([]models.AuditLog, error) {
	return s.auditRepo.ListAuditLogs(action, limit)
}

// audit failures never fail the operation being audited
func (s *AuthService) audit(user *models.User, action, details string) {
	if err := s.auditRepo.Record(user, action, details); err != nil {
		log.Printf("Warning: failed to write audit log %s for %s: %v", action, user.Email, err)
	}
}

// Register creates a student account. Only addresses under the allowed
// domain may register and the role is always user.
func (s *AuthService) Register(email, password, displayName string) (*LoginResponse, error) {
	email = strings.TrimSpace(email)
	if !s.IsAllowedEmail(email) {
		return nil, newError(ErrEmailDomain, fmt.Sprintf("Only %s email addresses can register", s.allowedDomain))
	}

	existing, err := s.userRepo.FindUserByEmail(email)
	if err == nil && existing != nil {
		return nil, ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  firstNonEmpty(strings.TrimSpace(displayName), email),
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.audit(user, "user_registration", "Registered with "+s.allowedDomain)

	return resp, nil
}

// EnsureAdmin creates the account if it does not exist and grants it the
// admin role. The domain restriction does not apply.
func (s *AuthService) EnsureAdmin(email, password, displayName string) (*models.User, bool, error) {
	email = strings.TrimSpace(email)
	user, err := s.userRepo.FindUserByEmail(email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	created := false
	if user == nil {
		if password == "" {
			return nil, false, errors.New("password is required to create a new admin")
		}
		passwordHash, err := utils.HashPassword(password)
		if err != nil {
			return nil, false, fmt.Errorf("failed to hash password: %w", err)
		}
		user = &models.User{
			ID:           uuid.New().String(),
			Email:        email,
			DisplayName:  firstNonEmpty(strings.TrimSpace(displayName), email),
			PasswordHash: passwordHash,
			Role:         models.RoleAdmin,
		}
		if err := s.userRepo.CreateUser(user); err != nil {
			return nil, false, fmt.Errorf("failed to create admin: %w", err)
		}
		created = true
	} else if user.Role != models.RoleAdmin {
		user.Role = models.RoleAdmin
		if err := s.userRepo.UpdateUser(user); err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
	}

	if created {
		s.audit(user, "admin_created", "Admin account created")
	} else {
		s.audit(user, "admin_granted", "Admin role granted")
	}
	return user, created, nil
}

func (s *AuthService) issueTokens(user *models.User) (*LoginResponse, error) {
	accessToken, err := utils.GenerateAccessToken(identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(refreshTokenModel); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userResponse(user),
	}, nil
}

func userResponse(user *models.User) UserResponse {
	return UserResponse{
		UID:         user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

func identityOf(user *models.User) utils.Identity {
	return utils.Identity{
		UID:         user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}
