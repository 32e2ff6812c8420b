package store

import (
	"fmt"
	"strings"

	"FupanBot/internal/model"
)

// Scope partitions stored ledgers: the direct-message pool or one group.
// The zero value is the DM scope.
type Scope struct {
	GroupID string
}

// DM returns the direct-message scope.
func DM() Scope { return Scope{} }

// Group returns the scope of one group.
func Group(groupID string) Scope { return Scope{GroupID: groupID} }

// IsGroup reports whether the scope is tied to a group.
func (s Scope) IsGroup() bool { return s.GroupID != "" }

// Context returns the record context value for this scope.
func (s Scope) Context() string {
	if s.IsGroup() {
		return model.ContextGroup
	}
	return model.ContextPrivate
}

func (s Scope) String() string {
	if s.IsGroup() {
		return "group:" + s.GroupID
	}
	return "dm"
}

// fileName builds the ledger file name for (userID, scope). The scope must be
// recoverable from the name so enumeration filters can select by it.
func fileName(userID string, sc Scope) string {
	if sc.IsGroup() {
		return fmt.Sprintf("checkin_%s_group_%s.json", userID, sc.GroupID)
	}
	return fmt.Sprintf("checkin_%s_dm.json", userID)
}

// parseFileName recovers (userID, scope) from a ledger file name.
func parseFileName(name string) (userID string, sc Scope, ok bool) {
	body, found := strings.CutPrefix(name, "checkin_")
	if !found {
		return "", Scope{}, false
	}
	body, found = strings.CutSuffix(body, ".json")
	if !found {
		return "", Scope{}, false
	}
	if uid, found := strings.CutSuffix(body, "_dm"); found {
		return uid, DM(), uid != ""
	}
	idx := strings.LastIndex(body, "_group_")
	if idx < 0 {
		return "", Scope{}, false
	}
	uid, gid := body[:idx], body[idx+len("_group_"):]
	if uid == "" || gid == "" {
		return "", Scope{}, false
	}
	return uid, Group(gid), true
}
