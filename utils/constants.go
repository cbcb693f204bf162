package utils

import (
	"time"
)

// Token time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Request context keys shared by handlers and flows
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Analytics constants
const (
	OverviewTopLinks  = 5
	DetailedTopLinks  = 10
	TopBrowsers       = 5
	TopCountries      = 10
	DailySeriesLength = 30
	UnknownLabel      = "Unknown"

	DefaultExportDays = 30
	MaxExportDays     = 365

	// PageViewRetention bounds how long daily page-view counters live in redis
	PageViewRetention = 30 * 24 * time.Hour
)

// Upload limits
const (
	MaxAvatarBytes = 5 * 1024 * 1024
	AvatarSize     = 256
)

// Cookie names
const (
	AuthCookieName       = "linkhub_token"
	OAuthStateCookieName = "linkhub_oauth_state"
	OAuthStateTTL        = 10 * time.Minute
)
