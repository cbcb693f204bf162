package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrOAuthDisabled = errors.New("google login is not configured")

// GoogleUser is the subset of the Google userinfo response LinkHub needs
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// OAuthService drives the Google authorization code flow
type OAuthService interface {
	Enabled() bool
	NewState() (string, error)
	AuthCodeURL(state string) string
	FetchUser(ctx context.Context, code string) (*GoogleUser, error)
}

type OAuthServiceImpl struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleOAuthService returns a disabled service when any credential is empty
func NewGoogleOAuthService(clientID, clientSecret, redirectURL string) OAuthService {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return &OAuthServiceImpl{}
	}
	return NewOAuthService(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}, googleUserInfoURL)
}

// NewOAuthService builds a service around an explicit oauth2 config and userinfo endpoint
func NewOAuthService(config *oauth2.Config, userInfoURL string) OAuthService {
	return &OAuthServiceImpl{config: config, userInfoURL: userInfoURL}
}

func (s *OAuthServiceImpl) Enabled() bool {
	return s.config != nil
}

func (s *OAuthServiceImpl) NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *OAuthServiceImpl) AuthCodeURL(state string) string {
	if s.config == nil {
		return ""
	}
	return s.config.AuthCodeURL(state)
}

// FetchUser exchanges the authorization code and reads the Google profile
func (s *OAuthServiceImpl) FetchUser(ctx context.Context, code string) (*GoogleUser, error) {
	if s.config == nil {
		return nil, ErrOAuthDisabled
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	if user.ID == "" || user.Email == "" {
		return nil, fmt.Errorf("user info is missing id or email")
	}

	return &user, nil
}
