package recorder

// CheckinEvent records one accepted check-in.
type CheckinEvent struct {
	UserID        string
	Scope         string // "dm" or "group:<id>"
	TradingDay    string
	Total         int
	Strike        int
	HasConclusion bool
}

// RevokeEvent records the removal of a user's last check-in.
type RevokeEvent struct {
	UserID string
	Scope  string
	Date   string
	Total  int
	Strike int
}

// ResetEvent records an admin data reset.
type ResetEvent struct {
	Scope   string
	Removed int
}

// BroadcastEvent records one daily review dispatch to a group.
type BroadcastEvent struct {
	GroupID      string
	ReviewDate   string
	Participants int
	UsedLLM      bool
}

// Recorder persists an audit trail of bot activity for analysis.
type Recorder interface {
	RecordCheckin(evt *CheckinEvent) error
	RecordRevoke(evt *RevokeEvent) error
	RecordReset(evt *ResetEvent) error
	RecordBroadcast(evt *BroadcastEvent) error
	Close() error
}
