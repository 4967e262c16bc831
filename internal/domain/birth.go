package domain

import (
	"fmt"
	"time"
)

// Supported birth year range. Outside of it the lookup tables still work,
// but the product only sells readings for this window.
const (
	MinBirthYear = 1900
	MaxBirthYear = 2100
)

// Situation is the optional life situation the customer picks on the form.
// It only steers the tone of the generated reading.
type Situation string

const (
	SituationUnspecified  Situation = ""
	SituationSingle       Situation = "single"
	SituationRelationship Situation = "relationship"
	SituationMarried      Situation = "married"
	SituationSeparated    Situation = "separated"
	SituationCareer       Situation = "career"
	SituationStudent      Situation = "student"
)

var situationLabels = map[Situation]string{
	SituationSingle:       "single and open to love",
	SituationRelationship: "in a relationship",
	SituationMarried:      "married",
	SituationSeparated:    "recently separated",
	SituationCareer:       "focused on career change",
	SituationStudent:      "a student",
}

// Valid reports whether s is empty or one of the known situations.
func (s Situation) Valid() bool {
	if s == SituationUnspecified {
		return true
	}
	_, ok := situationLabels[s]
	return ok
}

// Label returns the phrase used in prompts, or "" when unspecified.
func (s Situation) Label() string {
	return situationLabels[s]
}

// BirthInput is the data collected by the front end form.
type BirthInput struct {
	Year      int       `json:"year" yaml:"year"`
	Month     int       `json:"month" yaml:"month"`
	Day       int       `json:"day" yaml:"day"`
	Hour      *int      `json:"hour,omitempty" yaml:"hour,omitempty"`
	Situation Situation `json:"situation,omitempty" yaml:"situation,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
}

// Validate checks the date is a real calendar day inside the supported range
func (b BirthInput) Validate() error {
	if b.Year < MinBirthYear || b.Year > MaxBirthYear {
		return fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidBirthDate, b.Year, MinBirthYear, MaxBirthYear)
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidBirthDate, b.Month)
	}
	if b.Day < 1 || b.Day > DaysInMonth(b.Year, b.Month) {
		return fmt.Errorf("%w: day %d of %d-%02d", ErrInvalidBirthDate, b.Day, b.Year, b.Month)
	}
	if b.Hour != nil && (*b.Hour < 0 || *b.Hour > 23) {
		return fmt.Errorf("%w: got %d", ErrInvalidHour, *b.Hour)
	}
	if !b.Situation.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSituation, b.Situation)
	}
	return nil
}

// Date returns the birth day at midnight UTC.
func (b BirthInput) Date() time.Time {
	return time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in month of year (Gregorian).
func DaysInMonth(year, month int) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IntPtr is a small helper for optional hours.
func IntPtr(v int) *int {
	return &v
}
