package enums

import "fmt"

// BookingSource identifies the channel a booking arrived through.
type BookingSource string

const (
	BookingSourceWebsite BookingSource = "website"
	BookingSourceWidget  BookingSource = "widget"
	BookingSourceAPI     BookingSource = "api"
	BookingSourcePartner BookingSource = "partner"
	BookingSourceManual  BookingSource = "manual"
)

var validBookingSources = []BookingSource{
	BookingSourceWebsite,
	BookingSourceWidget,
	BookingSourceAPI,
	BookingSourcePartner,
	BookingSourceManual,
}

// String implements fmt.Stringer.
func (b BookingSource) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingSource.
func (b BookingSource) IsValid() bool {
	for _, candidate := range validBookingSources {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBookingSource converts raw input into a BookingSource.
func ParseBookingSource(value string) (BookingSource, error) {
	for _, candidate := range validBookingSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking source %q", value)
}
