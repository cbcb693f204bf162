package services

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// GeoLocation is the resolved origin of a request; empty fields mean unknown
type GeoLocation struct {
	Country string
	City    string
}

// GeoService resolves an IP address to a country and city
type GeoService interface {
	Lookup(ip string) GeoLocation
	Close() error
}

// CityReader is the subset of the MaxMind reader used for lookups
type CityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

type GeoServiceImpl struct {
	reader CityReader
}

// NewGeoService opens the MaxMind database at path; an empty path yields a service that knows nothing
func NewGeoService(path string) (GeoService, error) {
	if strings.TrimSpace(path) == "" {
		return &GeoServiceImpl{}, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &GeoServiceImpl{reader: reader}, nil
}

// NewGeoServiceWithReader wraps an already opened reader
func NewGeoServiceWithReader(reader CityReader) GeoService {
	return &GeoServiceImpl{reader: reader}
}

func (s *GeoServiceImpl) Lookup(ip string) GeoLocation {
	if s.reader == nil {
		return GeoLocation{}
	}

	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || !isPublicIP(parsed) {
		return GeoLocation{}
	}

	record, err := s.reader.City(parsed)
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("geoip lookup failed")
		return GeoLocation{}
	}

	return GeoLocation{
		Country: englishName(record.Country.Names, record.Country.IsoCode),
		City:    englishName(record.City.Names, ""),
	}
}

func (s *GeoServiceImpl) Close() error {
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}

func englishName(names map[string]string, fallback string) string {
	if name := names["en"]; name != "" {
		return name
	}
	return fallback
}

func isPublicIP(ip net.IP) bool {
	return !ip.IsPrivate() &&
		!ip.IsLoopback() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsUnspecified()
}
