package services

import (
	"strings"

	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/utils"
	"github.com/mssola/useragent"
)

// ClientInfo is the browser, operating system and device class of a user agent
type ClientInfo struct {
	Browser    string
	OS         string
	DeviceType string
}

// UserAgentParser classifies raw User-Agent headers
type UserAgentParser interface {
	Parse(raw string) ClientInfo
}

type UserAgentParserImpl struct{}

func NewUserAgentParser() UserAgentParser {
	return &UserAgentParserImpl{}
}

func (p *UserAgentParserImpl) Parse(raw string) ClientInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClientInfo{Browser: utils.UnknownLabel, OS: utils.UnknownLabel, DeviceType: models.DeviceDesktop}
	}

	ua := useragent.New(raw)

	browserName, browserVersion := ua.Browser()
	osInfo := ua.OSInfo()

	return ClientInfo{
		Browser:    nameVersion(browserName, browserVersion),
		OS:         nameVersion(osInfo.Name, osInfo.Version),
		DeviceType: deviceType(ua, raw),
	}
}

func nameVersion(name, version string) string {
	if strings.TrimSpace(name) == "" {
		name = utils.UnknownLabel
	}
	return strings.TrimSpace(name + " " + version)
}

func deviceType(ua *useragent.UserAgent, raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "ipad"),
		strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		return models.DeviceTablet
	case ua.Mobile():
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}
