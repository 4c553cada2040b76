// Package clock provides timezone-aware wall-clock access and short event ids.
package clock

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

// Zone is a Clock reporting the current time in a fixed location.
type Zone struct {
	loc *time.Location
}

func NewZone(loc *time.Location) *Zone {
	if loc == nil {
		loc = time.UTC
	}
	return &Zone{loc: loc}
}

func (z *Zone) Now() time.Time {
	return time.Now().In(z.loc)
}

func (z *Zone) Location() *time.Location {
	return z.loc
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// LoadLocation resolves an IANA zone name, falling back to UTC when it is unknown.
func LoadLocation(name string) (*time.Location, bool) {
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		return time.UTC, false
	}
	return loc, true
}

// Today returns the calendar date of c's current time.
func Today(c Clock) civil.Date {
	return civil.DateOf(c.Now())
}

// ShortID returns 8 random hex characters used to correlate files written together.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
