package util

import (
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Placeholder is shown for any value that is absent
const Placeholder = "—"

// DisplayLayout renders timestamps as MM/DD/YYYY, hh:mm AM
const DisplayLayout = "01/02/2006, 03:04 PM"

// DisplayLocation loads the named time zone used for rendering timestamps.
// An unknown name logs an error and falls back to UTC.
func DisplayLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Errorf("Failed to load location '%s': %v. Falling back to UTC.", name, err)
		return time.UTC
	}
	return loc
}

// FormatDisplayTime renders t in loc, or the placeholder when t is nil
func FormatDisplayTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatAgeHours renders an age with exactly one decimal
func FormatAgeHours(h *float64) string {
	if h == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*h, 'f', 1, 64)
}

// OrPlaceholder dereferences s, substituting the placeholder for nil
func OrPlaceholder(s *string) string {
	if s == nil {
		return Placeholder
	}
	return *s
}
