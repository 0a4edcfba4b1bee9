package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

// AdminUserID is the subject carried by desk operator tokens.
const AdminUserID = "admin"

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	AdminUsername     string
	AdminPassword     string
}

// ChangePasswordRequest is submitted by a signed-in member.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=4,max=72"`
}

// AuthService provides authentication use cases.
type AuthService struct {
	roster    repository.Roster
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(roster repository.Roster, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{roster: roster, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates the desk operator or a member and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	identifier := strings.TrimSpace(req.Mobile)

	if s.isAdmin(identifier, req.Password) {
		token, err := s.generateAccessToken(AdminUserID, models.RoleAdmin, "Administrator")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
		}
		s.logger.Info("admin signed in", zap.String("ip", req.IP))
		return s.response(token, models.RoleAdmin, nil), nil
	}

	student, err := s.roster.FindByMobile(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid mobile or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	if student.PasswordHash == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid mobile or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid mobile or password")
	}

	if !student.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "membership is inactive")
	}

	token, err := s.generateAccessToken(student.ID, models.RoleStudent, student.FullName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("student signed in", zap.String("student_id", student.ID), zap.String("ip", req.IP))
	return s.response(token, models.RoleStudent, student), nil
}

func (s *AuthService) isAdmin(username, password string) bool {
	if s.config.AdminUsername == "" || s.config.AdminPassword == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.config.AdminPassword)) == 1
	return userOK && passOK
}

func (s *AuthService) response(token string, role models.UserRole, student *models.Student) *models.LoginResponse {
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Role:        role,
		Student:     student,
		IssuedAt:    s.now().UTC(),
	}
}

// ChangePassword replaces a member's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, studentID string, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	err = s.roster.Mutate(ctx, func(tx repository.RosterTx) error {
		student, err := tx.Get(ctx, studentID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.OldPassword)) != nil {
			return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
		}
		updated := student.Clone()
		updated.PasswordHash = string(newHash)
		return tx.Replace(ctx, &updated)
	})
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
			return appErr
		case errors.Is(err, repository.ErrStudentNotFound):
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update password")
	}
	s.logger.Info("student password changed", zap.String("student_id", studentID))
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(userID string, role models.UserRole, fullName string) (string, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   userID,
		Role:     role,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
