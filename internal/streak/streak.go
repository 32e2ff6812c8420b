package streak

import (
	"log"
	"sort"
	"time"

	"FupanBot/internal/calendar"
	"FupanBot/internal/model"
)

// Engine maintains the consecutive-session counter of a ledger. Both the
// incremental path and the full recompute define adjacency through the
// trading calendar, so they agree on any history whose next_trading_day
// links came from the same calendar.
type Engine struct {
	cal *calendar.Adapter
	loc *time.Location
}

// NewEngine creates an Engine over cal; loc is used to parse stored dates.
func NewEngine(cal *calendar.Adapter, loc *time.Location) *Engine {
	return &Engine{cal: cal, loc: loc}
}

// Advance returns the strike count after recording a review for tradingDay.
// Call it before appending the new record to the ledger.
func (e *Engine) Advance(ledger *model.UserLedger, tradingDay string) int {
	last := ledger.LastCheckin()
	if last == nil {
		return 1
	}
	switch {
	case tradingDay == last.TradingDay:
		// Re-submission for the same session keeps the streak as-is.
		return ledger.StrikeCount
	case last.NextTradingDay != "" && tradingDay == last.NextTradingDay:
		return ledger.StrikeCount + 1
	default:
		return 1
	}
}

// Recompute derives the strike count from the full history: distinct sessions
// sorted ascending, then the run of calendar-adjacent sessions ending at the
// latest one. Used after revoke, when the incremental chain is broken.
func (e *Engine) Recompute(checkins []model.CheckinRecord) int {
	seen := make(map[string]struct{}, len(checkins))
	var days []string
	for _, c := range checkins {
		if c.TradingDay == "" {
			continue
		}
		if _, dup := seen[c.TradingDay]; dup {
			continue
		}
		seen[c.TradingDay] = struct{}{}
		days = append(days, c.TradingDay)
	}
	if len(days) == 0 {
		return 0
	}
	// ISO dates sort lexicographically in chronological order.
	sort.Strings(days)

	count := 1
	for i := len(days) - 1; i > 0; i-- {
		if !e.adjacent(days[i-1], days[i]) {
			break
		}
		count++
	}
	return count
}

// adjacent reports whether later is the session immediately after earlier.
func (e *Engine) adjacent(earlier, later string) bool {
	d, err := calendar.ParseDate(earlier, e.loc)
	if err != nil {
		log.Printf("[WARN] streak recompute: bad trading day %q: %v", earlier, err)
		return false
	}
	next, ok := e.cal.NextSession(d)
	return ok && calendar.FormatDate(next) == later
}
