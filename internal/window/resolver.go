package window

import (
	"log"
	"time"

	"FupanBot/internal/calendar"
	"FupanBot/internal/model"
)

// Default span applied when the configured default fails to parse. Matches
// the post-close to pre-open interval of the reference market.
const (
	fallbackStart = "15:00"
	fallbackEnd   = "09:00"
)

// Resolver maps an instant to the applicable check-in window.
type Resolver struct {
	cal *calendar.Adapter
	cfg Config
}

// NewResolver creates a Resolver over cal with cfg.
func NewResolver(cal *calendar.Adapter, cfg Config) *Resolver {
	return &Resolver{cal: cal, cfg: cfg}
}

// Status resolves the check-in window for (userID, groupID) at now.
//
// On a session day the window starts at today@start; when end is earlier than
// start the window crosses midnight and closes at the next session's end time
// (falling back to today when no next session resolves). On a non-session day
// the window spans from the most recent session's start to the next session's
// end, so a weekend still sits inside the tail of Friday's overnight window.
func (r *Resolver) Status(userID, groupID string, now time.Time) model.WindowStatus {
	today := calendar.DateOf(now)
	span := r.cfg.SpanFor(userID, groupID)
	sh, sm, err := ParseClock(span.Start)
	if err != nil {
		log.Printf("[WARN] window start %q invalid, using %s: %v", span.Start, fallbackStart, err)
		sh, sm, _ = ParseClock(fallbackStart)
	}
	eh, em, err := ParseClock(span.End)
	if err != nil {
		log.Printf("[WARN] window end %q invalid, using %s: %v", span.End, fallbackEnd, err)
		eh, em, _ = ParseClock(fallbackEnd)
	}

	if r.cal.IsSession(now) {
		next, hasNext := r.cal.NextSession(now)
		start := at(today, sh, sm)
		endDay := today
		if (eh < sh || (eh == sh && em < sm)) && hasNext {
			endDay = next
		}
		end := at(endDay, eh, em)
		st := model.WindowStatus{
			IsTradingDay: true,
			InWindow:     within(now, start, end),
			WindowStart:  &start,
			WindowEnd:    &end,
		}
		if hasNext {
			st.NextTradingDay = &next
		}
		return st
	}

	next, hasNext := r.cal.NextSession(now)
	if hasNext {
		if ref, ok := r.cal.PreviousSession(next); ok {
			start := at(calendar.DateOf(ref), sh, sm)
			end := at(calendar.DateOf(next), eh, em)
			return model.WindowStatus{
				InWindow:       within(now, start, end),
				WindowStart:    &start,
				WindowEnd:      &end,
				NextTradingDay: &next,
			}
		}
	}
	st := model.WindowStatus{}
	if hasNext {
		st.NextTradingDay = &next
	}
	return st
}

func at(date time.Time, hour, minute int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location())
}

// within is inclusive on both ends. When start equals end the window is
// zero-width and matches only that exact instant.
func within(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}
