// Package timezone is the service's sole timezone boundary. All stored
// instants are absolute; all human input and output is civil local time in
// the club's fixed zone (Europe/Oslo).
package timezone

import (
	"fmt"
	"time"
)

// Zone is the club's fixed IANA timezone.
const Zone = "Europe/Oslo"

// FormInputLayout matches the value of an HTML datetime-local input.
const FormInputLayout = "2006-01-02T15:04"

var location = func() *time.Location {
	loc, err := time.LoadLocation(Zone)
	if err != nil {
		panic(fmt.Sprintf("load timezone %s: %v", Zone, err))
	}
	return loc
}()

// Location returns the fixed club timezone.
func Location() *time.Location {
	return location
}

// Norwegian short names, matching what the old Intl "no-NO" formatter
// produced for weekday:"short" and month:"short".
var (
	weekdays = [...]string{"søn.", "man.", "tir.", "ons.", "tor.", "fre.", "lør."}
	months   = [...]string{"jan.", "feb.", "mar.", "apr.", "mai", "jun.", "jul.", "aug.", "sep.", "okt.", "nov.", "des."}
)

// FormatDisplay renders an absolute instant as the short Norwegian form used
// in session listings and admin tables, e.g. "tor. 05. jun. 18:00".
func FormatDisplay(t time.Time) string {
	lt := t.In(location)
	return fmt.Sprintf("%s %02d. %s %02d:%02d",
		weekdays[lt.Weekday()], lt.Day(), months[lt.Month()-1], lt.Hour(), lt.Minute())
}

// ParseFormInput interprets a civil date-time string (no offset, e.g.
// "2025-05-01T18:00") as wall-clock time in the club zone and returns the
// corresponding absolute instant. The conversion goes through the IANA rule
// engine, so seasonal offset changes are accounted for.
//
// DST policy: a time inside a spring-forward gap is shifted forward by the
// width of the gap ("02:30" in a 02:00→03:00 transition becomes 03:30); an
// ambiguous fall-back time resolves to whichever of the two offsets the
// runtime picks. Neither case is rejected.
func ParseFormInput(s string) (time.Time, error) {
	t, err := time.ParseInLocation(FormInputLayout, s, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local time %q: %w", s, err)
	}
	return t, nil
}

// FormatFormInput renders an absolute instant as the civil date-time string
// for pre-filling a datetime-local edit form. Inverse of ParseFormInput for
// every local time that exists on the civil clock.
func FormatFormInput(t time.Time) string {
	return t.In(location).Format(FormInputLayout)
}
