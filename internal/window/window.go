package window

import (
	"fmt"
	"time"
)

// Span is a pair of "15:04" times of day. An End earlier than Start means the
// window runs overnight into the next session.
type Span struct {
	Start string
	End   string
}

// ParseClock parses a "15:04" time-of-day string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func (sp Span) valid() bool {
	if _, _, err := ParseClock(sp.Start); err != nil {
		return false
	}
	_, _, err := ParseClock(sp.End)
	return err == nil
}

// Config carries the global default span plus per-group and per-user
// overrides. Precedence: group override, then user override, then default.
type Config struct {
	Default Span
	Users   map[string]Span
	Groups  map[string]Span
}

// SpanFor resolves the span applicable to (userID, groupID). Malformed
// overrides are skipped so a bad config entry cannot disable check-ins.
func (c Config) SpanFor(userID, groupID string) Span {
	if groupID != "" {
		if sp, ok := c.Groups[groupID]; ok && sp.valid() {
			return sp
		}
	}
	if sp, ok := c.Users[userID]; ok && sp.valid() {
		return sp
	}
	return c.Default
}
