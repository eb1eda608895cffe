package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prohmpiriya/queue-rush/internal/domain"
	"github.com/prohmpiriya/queue-rush/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthServiceConfig holds Google login settings
type OAuthServiceConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and UserInfoURL default to Google's
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// OAuthService defines the Google login flow
type OAuthService interface {
	// Enabled reports whether client credentials are configured
	Enabled() bool
	// AuthURL returns the provider consent URL carrying state
	AuthURL(state string) (string, error)
	// HandleCallback exchanges code and returns the signed-in account and session token
	HandleCallback(ctx context.Context, code string) (*domain.Account, string, error)
}

// oauthService implements OAuthService
type oauthService struct {
	config      *oauth2.Config
	userInfoURL string
	auth        AuthService
}

// NewOAuthService creates a new OAuthService. Without credentials every
// call returns domain.ErrOAuthNotConfigured.
func NewOAuthService(cfg *OAuthServiceConfig, auth AuthService) OAuthService {
	s := &oauthService{auth: auth, userInfoURL: cfg.UserInfoURL}
	if s.userInfoURL == "" {
		s.userInfoURL = googleUserInfoURL
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		endpoint := cfg.Endpoint
		if endpoint.AuthURL == "" {
			endpoint = google.Endpoint
		}
		s.config = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"email", "profile"},
		}
	}
	return s
}

func (s *oauthService) Enabled() bool {
	return s.config != nil
}

// AuthURL returns the provider consent URL carrying state
func (s *oauthService) AuthURL(state string) (string, error) {
	if s.config == nil {
		return "", domain.ErrOAuthNotConfigured
	}
	return s.config.AuthCodeURL(state), nil
}

// HandleCallback exchanges code and returns the signed-in account and session token
func (s *oauthService) HandleCallback(ctx context.Context, code string) (*domain.Account, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.oauth.callback")
	defer span.End()

	if s.config == nil {
		return nil, "", domain.ErrOAuthNotConfigured
	}
	if code == "" {
		return nil, "", fmt.Errorf("%w: missing authorization code", domain.ErrUpstreamAuth)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		span.SetStatus(codes.Error, "token exchange failed")
		return nil, "", fmt.Errorf("%w: token exchange failed: %v", domain.ErrUpstreamAuth, err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, "userinfo failed")
		return nil, "", err
	}

	account, err := s.auth.FederatedLogin(ctx, profile)
	if err != nil {
		return nil, "", err
	}

	sessionToken, err := s.auth.IssueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, sessionToken, nil
}

func (s *oauthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*domain.FederatedProfile, error) {
	client := s.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch Google user: %v", domain.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Google API returned status %d", domain.ErrUpstreamAuth, resp.StatusCode)
	}

	var data struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode Google user response: %v", domain.ErrUpstreamAuth, err)
	}
	if data.ID == "" {
		return nil, fmt.Errorf("%w: Google user has no id", domain.ErrUpstreamAuth)
	}

	return &domain.FederatedProfile{
		GoogleID: data.ID,
		Email:    data.Email,
		Name:     data.Name,
		Avatar:   data.Picture,
	}, nil
}
