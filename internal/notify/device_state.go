package notify

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// persistedDeviceState is the on-disk shape for anonymous viewers: two flat
// id lists under fixed keys.
type persistedDeviceState struct {
	ReadIDs    []string `json:"readIds"`
	DeletedIDs []string `json:"deletedIds"`
}

// deviceStateStore keeps anonymous read/delete state in a JSON file per
// device scope. Writes are synchronous; the file is small and local.
// Malformed or missing files degrade silently to empty state.
type deviceStateStore struct {
	path string

	mu    sync.Mutex
	state State
}

// NewDeviceStateStore returns a StateStore writing to dir/<flattened scope>.json.
func NewDeviceStateStore(dir, scope string) StateStore {
	return &deviceStateStore{
		path:  filepath.Join(dir, scopeFilename(scope)),
		state: emptyState(),
	}
}

// scopeFilename flattens a viewer scope into a single path element. Any rune
// that could act as a separator is replaced so the file always lands inside
// the state directory regardless of what the client sent as a device id.
func scopeFilename(scope string) string {
	out := []byte(scope)
	for i, b := range out {
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '-', b == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out) + ".json"
}

func (s *deviceStateStore) Load(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.copyLocked()
	}
	var persisted persistedDeviceState
	if err := json.Unmarshal(data, &persisted); err != nil {
		log.Printf("notify: malformed device state at %s, resetting", s.path)
		return s.copyLocked()
	}
	for _, id := range persisted.ReadIDs {
		s.state.ReadIDs[id] = true
	}
	for _, id := range persisted.DeletedIDs {
		s.state.DeletedIDs[id] = true
	}
	return s.copyLocked()
}

func (s *deviceStateStore) copyLocked() State {
	out := emptyState()
	for id := range s.state.ReadIDs {
		out.ReadIDs[id] = true
	}
	for id := range s.state.DeletedIDs {
		out.DeletedIDs[id] = true
	}
	return out
}

func (s *deviceStateStore) MarkRead(id string)    { s.apply([]string{id}, true, false) }
func (s *deviceStateStore) MarkDeleted(id string) { s.apply([]string{id}, false, true) }

func (s *deviceStateStore) MarkManyRead(ids []string)    { s.apply(ids, true, false) }
func (s *deviceStateStore) MarkManyDeleted(ids []string) { s.apply(ids, false, true) }

func (s *deviceStateStore) apply(ids []string, read, deleted bool) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if read {
			s.state.ReadIDs[id] = true
		}
		if deleted {
			s.state.DeletedIDs[id] = true
		}
	}
	s.saveLocked()
}

// saveLocked writes atomically via a temp file rename so a crash mid-write
// never leaves a truncated state file behind.
func (s *deviceStateStore) saveLocked() {
	persisted := persistedDeviceState{
		ReadIDs:    make([]string, 0, len(s.state.ReadIDs)),
		DeletedIDs: make([]string, 0, len(s.state.DeletedIDs)),
	}
	for id := range s.state.ReadIDs {
		persisted.ReadIDs = append(persisted.ReadIDs, id)
	}
	for id := range s.state.DeletedIDs {
		persisted.DeletedIDs = append(persisted.DeletedIDs, id)
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		log.Printf("notify: device state marshal failed: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.Printf("notify: device state dir: %v", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("notify: device state write failed: %v", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("notify: device state rename failed: %v", err)
	}
}
