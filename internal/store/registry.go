package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const registryFile = "group_sessions.json"

// Registry remembers, per group, the broadcast target handle most recently
// seen for that group. It is loaded once at startup and saved on every
// update.
type Registry struct {
	mu       sync.Mutex
	path     string
	sessions map[string]string
}

// LoadRegistry reads the registry from dir, starting empty if the file is
// missing or unreadable.
func LoadRegistry(dir string) *Registry {
	r := &Registry{
		path:     filepath.Join(dir, registryFile),
		sessions: make(map[string]string),
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] read group sessions: %v", err)
		}
		return r
	}
	if err := json.Unmarshal(data, &r.sessions); err != nil {
		log.Printf("[WARN] decode group sessions: %v, starting empty", err)
		r.sessions = make(map[string]string)
	}
	return r
}

// Set records the broadcast target for groupID and persists the registry.
func (r *Registry) Set(groupID, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[groupID] = target
	r.save()
}

// Get returns the broadcast target registered for groupID.
func (r *Registry) Get(groupID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.sessions[groupID]
	return t, ok
}

// Snapshot returns a copy of the group → target mapping.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.sessions))
	for k, v := range r.sessions {
		out[k] = v
	}
	return out
}

func (r *Registry) save() {
	data, err := json.MarshalIndent(r.sessions, "", "  ")
	if err != nil {
		log.Printf("[ERROR] encode group sessions: %v", err)
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		log.Printf("[ERROR] save group sessions: %v", err)
	}
}
