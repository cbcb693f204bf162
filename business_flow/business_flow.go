// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// ClientMetadata holds the request attributes flows record for audit and click enrichment
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Referrer  string `json:"referrer,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetReferrer sets the referrer header value
func (cm *ClientMetadata) SetReferrer(referrer string) {
	cm.Referrer = referrer
}

// NewValidator returns a validator with the LinkHub enum and username tags registered
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return models.Platform(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("theme", func(fl validator.FieldLevel) bool {
		return models.Theme(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})

	return v
}

// IsValidUsername reports whether s is 3..20 characters of [a-zA-Z0-9_-]
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// validateStruct turns validator failures into a ValidationError keyed by json field name
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError("body", err.Error())
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), FieldErrorMessage(fe))
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// FieldErrorMessage renders a human readable message for one failed constraint
func FieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "platform":
		return "must be one of github, youtube, twitter, linkedin, instagram, tiktok, website, other"
	case "theme":
		return "must be one of default, dark, minimal, colorful"
	case "username":
		return "must be 3-20 characters of letters, digits, underscore or hyphen"
	default:
		return "is invalid"
	}
}

// ToUserDTO converts a user model to its private representation
func ToUserDTO(u *models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		Bio:          u.Bio,
		Image:        u.Image,
		Theme:        string(u.Theme),
		HasPassword:  u.HasPassword(),
		GoogleLinked: u.GoogleSubject != nil,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ToLinkDTO converts a link with its live click count
func ToLinkDTO(l *models.Link, clicks int64) dto.LinkDTO {
	return dto.LinkDTO{
		ID:           l.ID,
		Title:        l.Title,
		URL:          l.URL,
		Description:  l.Description,
		Platform:     string(l.Platform),
		Icon:         l.Platform.Icon(),
		Position:     l.Position,
		IsActive:     l.IsActive,
		ScheduledAt:  l.ScheduledAt,
		ExpiresAt:    l.ExpiresAt,
		Clicks:       clicks,
		ClickCounter: l.ClickCount,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// toLinkDTOs maps links in order, attaching counts from the per-link map
func toLinkDTOs(links []*models.Link, counts map[uint]int64) []dto.LinkDTO {
	out := make([]dto.LinkDTO, 0, len(links))
	for _, l := range links {
		out = append(out, ToLinkDTO(l, counts[l.ID]))
	}
	return out
}

// auditLogger writes audit rows best-effort; failures are logged, never returned.
// Call it outside transactions so a rollback does not discard the row.
type auditLogger struct {
	repo repository.AuditLogRepository
}

func (a auditLogger) record(ctx context.Context, userID *uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) {
	if a.repo == nil {
		return
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      success,
		ErrorMessage: errMsg,
		CreatedAt:    utils.UTCNow(),
	}
	if metadata != nil {
		audit.IPAddress = utils.NilIfEmpty(metadata.IPAddress)
		audit.UserAgent = utils.NilIfEmpty(metadata.UserAgent)
		audit.RequestID = utils.NilIfEmpty(metadata.RequestID)
	}
	if audit.RequestID == nil {
		if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok {
			audit.RequestID = utils.NilIfEmpty(requestID)
		}
	}

	if err := a.repo.Save(ctx, audit); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
