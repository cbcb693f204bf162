package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minUsernameLen       = 3
	maxUsernameLen       = 20
	maxUsernameAttempts  = 1000
	usernamePadCharacter = "0"
)

// AuthFlow handles registration, sign-in and token lifecycle
type AuthFlow interface {
	Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	GoogleAuthURL() (state string, url string, err error)
	GoogleLogin(ctx context.Context, code string, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (*dto.UserDTO, error)
	Logout(ctx context.Context, userID uint, token string, metadata *ClientMetadata) error
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
}

// AuthFlowImpl implements AuthFlow
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	tokenService services.TokenService
	oauth        services.OAuthService
	audit        auditLogger
	validate     *validator.Validate
	bcryptCost   int
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	oauth services.OAuthService,
	bcryptCost int,
) AuthFlow {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthFlowImpl{
		userRepo:     userRepo,
		tokenService: tokenService,
		oauth:        oauth,
		audit:        auditLogger{repo: auditRepo},
		validate:     NewValidator(),
		bcryptCost:   bcryptCost,
	}
}

func (f *AuthFlowImpl) Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if req == nil {
		return nil, NewValidationError("body", "is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(f.validate, req); err != nil {
		return nil, err
	}

	existing, err := f.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to check email", err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), f.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_HASH_FAILED", "Failed to hash password", err)
	}

	username, err := f.uniqueUsername(ctx, UsernameBase(req.Name, req.Email))
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	user := &models.User{
		Email:        req.Email,
		Username:     username,
		Name:         req.Name,
		Theme:        models.ThemeDefault,
		PasswordHash: utils.ToPtr(string(hash)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, NewBusinessError("USER_CREATE_FAILED", "Failed to create user", err)
	}

	f.audit.record(ctx, &user.ID, models.AuditActionSignupCompleted, fmt.Sprintf("User %s signed up", user.Username), true, nil, metadata)

	return f.issue(user)
}

func (f *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if req == nil {
		return nil, NewValidationError("body", "is required")
	}
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(f.validate, req); err != nil {
		return nil, err
	}

	user, err := f.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
	}

	if user == nil || !user.HasPassword() ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		var userID *uint
		if user != nil {
			userID = &user.ID
		}
		errMsg := ErrInvalidCredentials.Error()
		f.audit.record(ctx, userID, models.AuditActionLoginFailed, "Login failed for "+req.Email, false, &errMsg, metadata)
		return nil, ErrInvalidCredentials
	}

	f.audit.record(ctx, &user.ID, models.AuditActionLoginSuccess, fmt.Sprintf("User %d logged in", user.ID), true, nil, metadata)

	return f.issue(user)
}

func (f *AuthFlowImpl) GoogleAuthURL() (string, string, error) {
	if f.oauth == nil || !f.oauth.Enabled() {
		return "", "", ErrOAuthUnavailable
	}
	state, err := f.oauth.NewState()
	if err != nil {
		return "", "", NewBusinessError("OAUTH_STATE_FAILED", "Failed to create oauth state", err)
	}
	return state, f.oauth.AuthCodeURL(state), nil
}

// GoogleLogin signs in through Google, linking an existing account by email when needed
func (f *AuthFlowImpl) GoogleLogin(ctx context.Context, code string, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	if f.oauth == nil || !f.oauth.Enabled() {
		return nil, ErrOAuthUnavailable
	}
	if strings.TrimSpace(code) == "" {
		return nil, NewValidationError("code", "is required")
	}

	gu, err := f.oauth.FetchUser(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("google login exchange failed")
		return nil, ErrOAuthFailed
	}

	user, err := f.userRepo.ByGoogleSubject(ctx, gu.ID)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
	}

	if user == nil {
		user, err = f.userRepo.ByEmail(ctx, normalizeEmail(gu.Email))
		if err != nil {
			return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
		}
		if user != nil {
			user.GoogleSubject = utils.ToPtr(gu.ID)
			if user.Image == nil && gu.Picture != "" {
				user.Image = utils.ToPtr(gu.Picture)
			}
			user.UpdatedAt = utils.UTCNow()
			if err := f.userRepo.Update(ctx, user); err != nil {
				return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to link google account", err)
			}
		}
	}

	if user == nil {
		user, err = f.createGoogleUser(ctx, gu)
		if err != nil {
			return nil, err
		}
	}

	f.audit.record(ctx, &user.ID, models.AuditActionOAuthLogin, fmt.Sprintf("User %d logged in with google", user.ID), true, nil, metadata)

	return f.issue(user)
}

func (f *AuthFlowImpl) createGoogleUser(ctx context.Context, gu *services.GoogleUser) (*models.User, error) {
	email := normalizeEmail(gu.Email)
	name := strings.TrimSpace(gu.Name)
	if name == "" {
		name = emailLocalPart(email)
	}
	if len(name) > 50 {
		name = name[:50]
	}

	username, err := f.uniqueUsername(ctx, UsernameBase(name, email))
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	user := &models.User{
		Email:         email,
		Username:      username,
		Name:          name,
		Image:         utils.NilIfEmpty(gu.Picture),
		Theme:         models.ThemeDefault,
		GoogleSubject: utils.ToPtr(gu.ID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := f.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, NewBusinessError("USER_CREATE_FAILED", "Failed to create user", err)
	}
	return user, nil
}

func (f *AuthFlowImpl) Me(ctx context.Context, userID uint) (*dto.UserDTO, error) {
	user, err := f.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	out := ToUserDTO(user)
	return &out, nil
}

func (f *AuthFlowImpl) Logout(ctx context.Context, userID uint, token string, metadata *ClientMetadata) error {
	if err := f.tokenService.RevokeToken(ctx, token); err != nil {
		if errors.Is(err, services.ErrTokenInvalid) || errors.Is(err, services.ErrTokenExpired) {
			return ErrInvalidToken
		}
		return NewBusinessError("TOKEN_REVOKE_FAILED", "Failed to revoke token", err)
	}

	f.audit.record(ctx, &userID, models.AuditActionLogout, fmt.Sprintf("User %d logged out", userID), true, nil, metadata)
	return nil
}

func (f *AuthFlowImpl) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, NewValidationError("refresh_token", "is required")
	}

	access, refresh, err := f.tokenService.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, services.ErrTokenInvalid) || errors.Is(err, services.ErrTokenExpired) || errors.Is(err, services.ErrTokenRevoked) {
			return nil, ErrInvalidToken
		}
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Failed to refresh token", err)
	}

	return f.response(access, refresh, nil), nil
}

func (f *AuthFlowImpl) issue(user *models.User) (*dto.AuthResponse, error) {
	access, refresh, err := f.tokenService.GenerateTokens(user.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}
	u := ToUserDTO(user)
	return f.response(access, refresh, &u), nil
}

func (f *AuthFlowImpl) response(access, refresh string, user *dto.UserDTO) *dto.AuthResponse {
	ttl := f.tokenService.AccessTokenTTL()
	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl / time.Second),
		ExpiresAt:    utils.UTCNow().Add(ttl),
		User:         user,
	}
}

// uniqueUsername appends 1, 2, ... to base until no user holds the candidate
func (f *AuthFlowImpl) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		existing, err := f.userRepo.ByUsername(ctx, candidate)
		if err != nil {
			return "", NewBusinessError("USER_FETCH_FAILED", "Failed to check username", err)
		}
		if existing == nil {
			return candidate, nil
		}

		suffix := strconv.Itoa(i)
		prefix := base
		if len(prefix)+len(suffix) > maxUsernameLen {
			prefix = prefix[:maxUsernameLen-len(suffix)]
		}
		candidate = prefix + suffix
	}
	return "", NewBusinessError("USERNAME_EXHAUSTED", "Failed to generate a unique username", ErrUsernameTaken)
}

// UsernameBase derives a 3..20 character handle from a display name, falling back to the email local part
func UsernameBase(name, email string) string {
	base := sanitizeUsername(name)
	if base == "" {
		base = sanitizeUsername(emailLocalPart(email))
	}
	if base == "" {
		base = "user"
	}
	for len(base) < minUsernameLen {
		base += usernamePadCharacter
	}
	if len(base) > maxUsernameLen {
		base = base[:maxUsernameLen]
	}
	return base
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
