package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"FupanBot/internal/model"
)

// Store keeps one JSON file per (userID, scope) ledger under a data
// directory. Single-writer discipline; each save replaces the whole file.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(userID string, sc Scope) string {
	return filepath.Join(s.dir, fileName(userID, sc))
}

// Load returns the ledger for (userID, scope). A missing or unreadable file
// yields a fresh empty ledger; decode failures are logged, never surfaced.
func (s *Store) Load(userID string, sc Scope) *model.UserLedger {
	data, err := os.ReadFile(s.path(userID, sc))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] read ledger %s %s: %v", userID, sc, err)
		}
		return model.NewUserLedger(userID)
	}
	l, err := decodeLedger(data)
	if err != nil {
		log.Printf("[WARN] decode ledger %s %s: %v, starting fresh", userID, sc, err)
		return model.NewUserLedger(userID)
	}
	if l.UserID == "" {
		l.UserID = userID
	}
	return l
}

// Save persists the ledger via a temp-file rename so readers never observe a
// partial write. Failures are logged only; the caller proceeds regardless.
func (s *Store) Save(userID string, sc Scope, l *model.UserLedger) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		log.Printf("[ERROR] encode ledger %s %s: %v", userID, sc, err)
		return
	}
	path := s.path(userID, sc)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("[ERROR] write ledger %s %s: %v", userID, sc, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Printf("[ERROR] replace ledger %s %s: %v", userID, sc, err)
	}
}

// ListAll returns every stored ledger whose scope passes the filter, in
// stable file-name order. Unreadable files are logged and skipped.
func (s *Store) ListAll(filter func(Scope) bool) []*model.UserLedger {
	var out []*model.UserLedger
	for _, ent := range s.ledgerEntries() {
		if !filter(ent.scope) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, ent.name))
		if err != nil {
			log.Printf("[WARN] read ledger file %s: %v", ent.name, err)
			continue
		}
		l, err := decodeLedger(data)
		if err != nil {
			log.Printf("[WARN] decode ledger file %s: %v", ent.name, err)
			continue
		}
		if l.UserID == "" {
			l.UserID = ent.userID
		}
		out = append(out, l)
	}
	return out
}

// DeleteMatching removes every ledger whose scope passes the filter and
// returns the number removed.
func (s *Store) DeleteMatching(filter func(Scope) bool) int {
	removed := 0
	for _, ent := range s.ledgerEntries() {
		if !filter(ent.scope) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, ent.name)); err != nil {
			log.Printf("[ERROR] delete ledger file %s: %v", ent.name, err)
			continue
		}
		removed++
	}
	return removed
}

// GroupIDs returns the distinct group IDs that have stored ledgers, in
// stable order.
func (s *Store) GroupIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ent := range s.ledgerEntries() {
		if !ent.scope.IsGroup() {
			continue
		}
		if _, dup := seen[ent.scope.GroupID]; dup {
			continue
		}
		seen[ent.scope.GroupID] = struct{}{}
		out = append(out, ent.scope.GroupID)
	}
	return out
}

type ledgerEntry struct {
	name   string
	userID string
	scope  Scope
}

// ledgerEntries lists known ledger files. os.ReadDir sorts by file name, so
// enumeration order is deterministic.
func (s *Store) ledgerEntries() []ledgerEntry {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("[ERROR] list data dir %s: %v", s.dir, err)
		return nil
	}
	var out []ledgerEntry
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		uid, sc, ok := parseFileName(de.Name())
		if !ok {
			continue
		}
		out = append(out, ledgerEntry{name: de.Name(), userID: uid, scope: sc})
	}
	return out
}

// decodeLedger unmarshals a stored ledger and applies read-time migrations:
// records written before streak tracking carry no strike_count field, which
// decodes to 0.
func decodeLedger(data []byte) (*model.UserLedger, error) {
	var l model.UserLedger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	if l.Checkins == nil {
		l.Checkins = []model.CheckinRecord{}
	}
	return &l, nil
}
