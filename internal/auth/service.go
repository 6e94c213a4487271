package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/fasthelp/fasthelp/internal/database"
	"github.com/fasthelp/fasthelp/pkg/models"
)

const bcryptCost = 12

// Service handles registration, credential checks, and JWT issuance.
type Service struct {
	db         *database.DB
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

// Claims are the JWT claims carried by Fast Help tokens.
type Claims struct {
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// New creates a new auth service.
func New(db *database.DB, signingKey, issuer string, tokenTTL time.Duration) *Service {
	return &Service{
		db:         db,
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Register creates a new account in pending approval status. New
// accounts cannot log in until an admin approves them.
func (s *Service) Register(ctx context.Context, fullName, username, email, phone, password string, role models.Role) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:     fullName,
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
		Approval:     models.ApprovalPending,
	}
	return s.db.CreateUser(ctx, user)
}

// Login verifies credentials and the account's approval status, then
// issues a signed token. Admins bypass the approval gate.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsAdmin() {
		switch user.Approval {
		case models.ApprovalPending:
			return "", nil, ErrAccountPending
		case models.ApprovalDenied:
			return "", nil, ErrAccountDenied
		}
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, err
	}

	if err := s.db.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return "", nil, fmt.Errorf("update last login: %w", err)
	}
	return token, user, nil
}

// GenerateToken creates a signed JWT for an authenticated user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
