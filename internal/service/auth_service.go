package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"induction-portal/internal/cache"
	"induction-portal/internal/config"
	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/logger"
	"induction-portal/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTypeAccess = "access"

// ErrInvalidJWTToken marks any token that fails parsing, signature or claim checks.
var ErrInvalidJWTToken = errors.New("invalid jwt token")

// AuthService handles accounts and bearer tokens.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// AdminLogin is Login restricted to admin accounts.
	AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*domain.Session, error)
	Logout(ctx context.Context, session *domain.Session) error
	Me(ctx context.Context, session *domain.Session) (*dto.UserResponse, error)
	// EnsureAdmin creates the admin account if no user holds the email yet.
	EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error)
}

type authServiceImpl struct {
	userRepo   domain.UserRepository
	revoked    domain.Cache
	jwt        config.JWTConfig
	bcryptCost int
}

// NewAuthService creates a new instance of AuthService. revoked may be nil, which disables logout revocation.
func NewAuthService(userRepo domain.UserRepository, revoked domain.Cache, jwtConfig config.JWTConfig) (AuthService, error) {
	if len(jwtConfig.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}
	if jwtConfig.AccessTokenTTL <= 0 {
		jwtConfig.AccessTokenTTL = 24 * time.Hour
	}
	return &authServiceImpl{
		userRepo:   userRepo,
		revoked:    revoked,
		jwt:        jwtConfig,
		bcryptCost: bcrypt.DefaultCost,
	}, nil
}

func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("User registered", zap.String("userID", user.ID))
	return s.issue(user)
}

func (s *authServiceImpl) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	user := domain.NewUser(name, email)
	user.ID = util.NewULID()
	user.Role = role
	user.CreatedAt = util.Now()
	user.UpdatedAt = user.CreatedAt

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, domain.NewInternalError("Failed to hash password", err)
	}
	user.PasswordHash = string(hash)

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if domain.HasCode(err, domain.CodeConflict) {
			return nil, err
		}
		return nil, domain.NewInternalError("Failed to create user", err)
	}
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authServiceImpl) AdminLogin(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		logger.Get().Warn("Non-admin attempted admin login", zap.String("userID", user.ID))
		return nil, domain.NewForbiddenError("Admin access required")
	}
	return s.issue(user)
}

func (s *authServiceImpl) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, domain.NewInternalError("Failed to load user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewError(domain.CodeInvalidCredentials, "Invalid email or password", nil)
	}
	return user, nil
}

func (s *authServiceImpl) issue(user *domain.User) (*dto.TokenResponse, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		UserID:    user.ID,
		Role:      string(user.Role),
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        util.NewULID(),
			Issuer:    s.jwt.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwt.SecretKey))
	if err != nil {
		return nil, domain.NewInternalError("Failed to sign token", err)
	}
	return &dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwt.AccessTokenTTL.Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func (s *authServiceImpl) ValidateToken(ctx context.Context, tokenString string) (*domain.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwt.SecretKey), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("JWT token expired")
		} else {
			logger.Get().Warn("JWT validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	claims, ok := token.Claims.(*dto.AuthClaims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeAccess || claims.UserID == "" {
		return nil, ErrInvalidJWTToken
	}
	if s.isRevoked(ctx, claims.ID) {
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidJWTToken)
	}

	session := &domain.Session{
		UserID:  claims.UserID,
		Role:    domain.Role(claims.Role),
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// isRevoked fails open when the cache is unreachable; the token still has to be unexpired.
func (s *authServiceImpl) isRevoked(ctx context.Context, tokenID string) bool {
	if s.revoked == nil || tokenID == "" {
		return false
	}
	_, err := s.revoked.Get(ctx, cache.RevokedTokenKey(tokenID))
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("Token revocation check failed", zap.String("jti", tokenID), zap.Error(err))
	}
	return false
}

func (s *authServiceImpl) Logout(ctx context.Context, session *domain.Session) error {
	if !session.Authenticated() {
		return domain.NewUnauthenticatedError("Authentication required")
	}
	if s.revoked == nil || session.TokenID == "" {
		return nil
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, cache.RevokedTokenKey(session.TokenID), session.UserID, ttl); err != nil {
		return domain.NewInternalError("Failed to revoke token", err)
	}
	logger.Get().Info("User logged out", zap.String("userID", session.UserID))
	return nil
}

func (s *authServiceImpl) Me(ctx context.Context, session *domain.Session) (*dto.UserResponse, error) {
	if !session.Authenticated() {
		return nil, domain.NewUnauthenticatedError("Authentication required")
	}
	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("User %s not found", session.UserID))
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authServiceImpl) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	existing, err := s.userRepo.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, domain.NewInternalError("Failed to load user", err)
	}
	if existing != nil {
		return existing, nil
	}
	user, err := s.createUser(ctx, name, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("Admin account created", zap.String("userID", user.ID), zap.String("email", user.Email))
	return user, nil
}

func toUserResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}
