// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// DateLayout is the calendar-day layout used for daily analytics buckets
const DateLayout = "2006-01-02"

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// TimeToUTCPtr converts a time pointer to UTC if it's not already
func TimeToUTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// StartOfDay returns local midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DaysAgo moves a midnight back by n calendar days, staying on midnight across DST changes
func DaysAgo(midnight time.Time, n int) time.Time {
	return midnight.AddDate(0, 0, -n)
}

// LoadLocation resolves an IANA zone name; "" and "Local" map to the process zone
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
