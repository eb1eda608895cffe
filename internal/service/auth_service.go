package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/internal/dto"
	"github.com/prohmpiriya/queue-rush/internal/metrics"
	"github.com/prohmpiriya/queue-rush/internal/repository"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Register creates a local account and returns it with a session token
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.Account, string, error)
	// Login checks credentials and returns the account with a session token
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.Account, string, error)
	// CurrentUser resolves a session token to its account
	CurrentUser(ctx context.Context, token string) (*domain.Account, error)
	// ValidateToken verifies a session token and returns its claims
	ValidateToken(token string) (*domain.TokenClaims, error)
	// IssueToken signs a session token for account
	IssueToken(account *domain.Account) (string, error)
	// FederatedLogin finds or creates the account for a provider identity
	FederatedLogin(ctx context.Context, profile *domain.FederatedProfile) (*domain.Account, error)
}

// authService implements AuthService
type authService struct {
	accountRepo repository.AccountRepository
	config      *AuthServiceConfig
	clock       Clock

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService
func NewAuthService(accountRepo repository.AccountRepository, config *AuthServiceConfig, clock Clock) AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = 30 * 24 * time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	return &authService{
		accountRepo: accountRepo,
		config:      config,
		clock:       clock,
	}
}

// HashPassword hashes password with bcrypt at cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a local account
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.Account, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.register")
	defer span.End()

	account, token, err := s.register(ctx, req)
	metrics.RecordAuth("register", err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	span.SetAttributes(attribute.String("account_id", account.ID))
	return account, token, nil
}

func (s *authService) register(ctx context.Context, req *dto.RegisterRequest) (*domain.Account, string, error) {
	if ok, msg := req.Validate(); !ok {
		return nil, "", domain.NewValidationError(msg)
	}

	exists, err := s.accountRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", domain.ErrAccountExists
	}

	hash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, "", err
	}

	now := s.clock()
	account := &domain.Account{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		Name:         req.Name,
		Role:         domain.Role(req.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	domain.NormalizeAccount(account)
	if err := domain.ValidateAccount(account); err != nil {
		return nil, "", err
	}

	if account.Email != "" {
		taken, err := s.accountRepo.ExistsByEmail(ctx, account.Email)
		if err != nil {
			return nil, "", err
		}
		if taken {
			return nil, "", domain.ErrAccountExists
		}
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login checks credentials. Unknown usernames and wrong passwords both
// yield ErrInvalidCredentials after the same bcrypt work.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.Account, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	account, token, err := s.login(ctx, req)
	metrics.RecordAuth("login", err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}
	span.SetAttributes(attribute.String("account_id", account.ID))
	return account, token, nil
}

func (s *authService) login(ctx context.Context, req *dto.LoginRequest) (*domain.Account, string, error) {
	if ok, msg := req.Validate(); !ok {
		return nil, "", domain.NewValidationError(msg)
	}

	account, err := s.accountRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", err
	}
	if account == nil || account.PasswordHash == "" {
		s.burnCompare(req.Password)
		return nil, "", domain.ErrInvalidCredentials
	}

	if !VerifyPassword(account.PasswordHash, req.Password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// burnCompare spends one bcrypt comparison so missing accounts take as
// long as wrong passwords
func (s *authService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("queue-rush-placeholder"), s.config.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// CurrentUser resolves a session token to its account
func (s *authService) CurrentUser(ctx context.Context, token string) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.current_user")
	defer span.End()

	claims, err := s.ValidateToken(token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// IssueToken signs a session token for account
func (s *authService) IssueToken(account *domain.Account) (string, error) {
	now := s.clock()
	claims := jwt.MapClaims{
		"id":   account.ID,
		"role": string(account.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.config.TokenTTL).Unix(),
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a session token and returns its claims
func (s *authService) ValidateToken(tokenString string) (*domain.TokenClaims, error) {
	if tokenString == "" {
		return nil, domain.ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
		jwt.WithExpirationRequired(),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return nil, domain.ErrInvalidToken
	}
	role, _ := claims["role"].(string)

	result := &domain.TokenClaims{AccountID: id, Role: domain.Role(role)}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	return result, nil
}

// FederatedLogin finds the account linked to the provider identity or
// creates a staff account for it. Calling it twice with the same profile
// returns the same account.
func (s *authService) FederatedLogin(ctx context.Context, profile *domain.FederatedProfile) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.federated_login")
	defer span.End()

	account, err := s.federatedLogin(ctx, profile)
	metrics.RecordAuth("google", err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("account_id", account.ID))
	return account, nil
}

func (s *authService) federatedLogin(ctx context.Context, profile *domain.FederatedProfile) (*domain.Account, error) {
	if profile == nil || profile.GoogleID == "" {
		return nil, fmt.Errorf("%w: profile has no id", domain.ErrUpstreamAuth)
	}

	existing, err := s.accountRepo.GetByGoogleID(ctx, profile.GoogleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email != "" {
		// an email already owned by another account is not linked
		taken, err := s.accountRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			email = ""
		}
	}

	username, err := s.availableUsername(ctx, usernameBase(profile.Email))
	if err != nil {
		return nil, err
	}

	now := s.clock()
	account := &domain.Account{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Name:      truncateRunes(strings.TrimSpace(profile.Name), 100),
		GoogleID:  profile.GoogleID,
		Role:      domain.RoleStaff,
		Avatar:    profile.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}
	domain.NormalizeAccount(account)
	if err := domain.ValidateAccount(account); err != nil {
		// drop optional fields the provider filled with something unusable
		account.Email, account.Avatar = "", ""
		if err := domain.ValidateAccount(account); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			// lost a race with a concurrent login for the same identity
			if again, getErr := s.accountRepo.GetByGoogleID(ctx, profile.GoogleID); getErr == nil && again != nil {
				return again, nil
			}
		}
		return nil, err
	}
	return account, nil
}

const maxUsernameAttempts = 100

// availableUsername returns base or base-N, whichever is free first
func (s *authService) availableUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := base
		if i > 0 {
			suffix := fmt.Sprintf("-%d", i)
			candidate = truncateRunes(base, 30-len(suffix)) + suffix
		}
		taken, err := s.accountRepo.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "user-" + uuid.New().String()[:8], nil
}

// usernameBase derives a username from the email local-part
func usernameBase(email string) string {
	local := strings.TrimSpace(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	local = truncateRunes(local, 30)
	if len([]rune(local)) < 3 {
		return "user"
	}
	return local
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
