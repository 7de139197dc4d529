package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"codeclive/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService validates the platform's user tokens
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// IssueToken signs a token for identity. ttl <= 0 means no expiry.
func (s *AuthService) IssueToken(identity *model.Identity, ttl time.Duration) (string, error) {
	if identity == nil || identity.Username == "" {
		return "", fmt.Errorf("%w: username is required", ErrInvalidPayload)
	}
	userID := identity.UserID
	if userID == "" {
		userID = "user_" + uuid.New().String()[:8]
	}

	now := time.Now()
	claims := &model.UserClaims{
		UserID:    userID,
		Username:  identity.Username,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Role:      identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  userID,
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses a user JWT and returns who it belongs to
func (s *AuthService) ValidateToken(tokenString string) (*model.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	if claims.Role != model.RoleMentor {
		claims.Role = model.RoleLearner
	}

	return claims.Identity(), nil
}
