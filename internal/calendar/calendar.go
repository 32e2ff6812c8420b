package calendar

import (
	"log"
	"time"
)

// Source answers raw session queries for the reference market. Implementations
// may fail (exhausted lookahead, missing table data); the Adapter absorbs
// those failures.
type Source interface {
	IsSession(date time.Time) (bool, error)
	PreviousSession(date time.Time) (time.Time, error)
	NextSession(date time.Time) (time.Time, error)
	Name() string
}

// Adapter wraps a Source and never propagates errors: failures are logged and
// mapped to safe defaults (not a session / no session found).
type Adapter struct {
	src Source
}

// NewAdapter creates an Adapter over src.
func NewAdapter(src Source) *Adapter {
	return &Adapter{src: src}
}

// IsSession reports whether date's calendar day is a trading session.
// Time-of-day is ignored.
func (a *Adapter) IsSession(date time.Time) bool {
	ok, err := a.src.IsSession(date)
	if err != nil {
		log.Printf("[WARN] calendar %s: is-session %s: %v", a.src.Name(), FormatDate(date), err)
		return false
	}
	return ok
}

// PreviousSession returns the last session strictly before date's calendar day.
func (a *Adapter) PreviousSession(date time.Time) (time.Time, bool) {
	d, err := a.src.PreviousSession(date)
	if err != nil {
		log.Printf("[WARN] calendar %s: previous-session %s: %v", a.src.Name(), FormatDate(date), err)
		return time.Time{}, false
	}
	return d, true
}

// NextSession returns the first session strictly after date's calendar day.
func (a *Adapter) NextSession(date time.Time) (time.Time, bool) {
	d, err := a.src.NextSession(date)
	if err != nil {
		log.Printf("[WARN] calendar %s: next-session %s: %v", a.src.Name(), FormatDate(date), err)
		return time.Time{}, false
	}
	return d, true
}
