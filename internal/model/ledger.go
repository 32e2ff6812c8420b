package model

// Check-in context values stored in CheckinRecord.Context.
const (
	ContextGroup   = "group"
	ContextPrivate = "private"
)

// CheckinRecord is one submitted review. Immutable once created; it can only
// disappear via revoke.
type CheckinRecord struct {
	Date           string `json:"date"`                       // calendar date of submission, "2006-01-02"
	Timestamp      int64  `json:"timestamp"`                  // unix seconds of submission
	TradingDay     string `json:"trading_day"`                // session this review counts for
	NextTradingDay string `json:"next_trading_day,omitempty"` // session after TradingDay, empty if unresolvable
	Context        string `json:"context"`                    // ContextGroup or ContextPrivate
	Conclusion     string `json:"conclusion,omitempty"`
}

// UserLedger is the full check-in history of one user within one scope.
// TotalCount always equals len(Checkins); StrikeCount caches the consecutive
// session streak and is refreshed on every mutation.
type UserLedger struct {
	UserID      string          `json:"user_id"`
	Nickname    string          `json:"nickname"`
	Checkins    []CheckinRecord `json:"checkins"`
	TotalCount  int             `json:"total_count"`
	StrikeCount int             `json:"strike_count"`
}

// NewUserLedger returns an empty ledger for userID.
func NewUserLedger(userID string) *UserLedger {
	return &UserLedger{UserID: userID, Checkins: []CheckinRecord{}}
}

// LastCheckin returns the most recently appended record, or nil.
func (l *UserLedger) LastCheckin() *CheckinRecord {
	if len(l.Checkins) == 0 {
		return nil
	}
	return &l.Checkins[len(l.Checkins)-1]
}

// RankEntry is one row of the streak leaderboard.
type RankEntry struct {
	UserID      string
	Nickname    string
	StrikeCount int
}
