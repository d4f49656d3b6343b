package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDeviceStatePersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	store := NewDeviceStateStore(dir, "device:abc")
	store.Load(context.Background())
	store.MarkRead("new-cafe-42")
	store.MarkDeleted("old-news-1")

	// A fresh store over the same directory sees the same state.
	reloaded := NewDeviceStateStore(dir, "device:abc")
	state := reloaded.Load(context.Background())
	if !state.ReadIDs["new-cafe-42"] {
		t.Error("read id lost across reload")
	}
	if !state.DeletedIDs["old-news-1"] {
		t.Error("deleted id lost across reload")
	}

	// A different scope is isolated.
	other := NewDeviceStateStore(dir, "device:other")
	if s := other.Load(context.Background()); len(s.ReadIDs) != 0 || len(s.DeletedIDs) != 0 {
		t.Errorf("other device saw state %v", s)
	}
}

func TestDeviceStateFlagsIndependent(t *testing.T) {
	dir := t.TempDir()

	store := NewDeviceStateStore(dir, "device:abc")
	store.Load(context.Background())
	store.MarkRead("n1")
	store.MarkDeleted("n1") // must not clobber the read flag

	state := NewDeviceStateStore(dir, "device:abc").Load(context.Background())
	if !state.ReadIDs["n1"] {
		t.Error("delete write dropped the read flag")
	}
	if !state.DeletedIDs["n1"] {
		t.Error("deleted flag not set")
	}
}

func TestDeviceStateMalformedFileDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device_abc.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewDeviceStateStore(dir, "device:abc")
	state := store.Load(context.Background())
	if len(state.ReadIDs) != 0 || len(state.DeletedIDs) != 0 {
		t.Errorf("malformed file yielded non-empty state: %v", state)
	}

	// Store stays usable and overwrites the bad file.
	store.MarkRead("n1")
	state = NewDeviceStateStore(dir, "device:abc").Load(context.Background())
	if !state.ReadIDs["n1"] {
		t.Error("write after malformed load was lost")
	}
}

func TestDeviceStateHostileScopeStaysInsideDir(t *testing.T) {
	dir := t.TempDir()

	// A device id shaped like a relative path must not place the state file
	// anywhere outside the state directory.
	scope := Anonymous("../../outside/evil").Scope()
	store := NewDeviceStateStore(dir, scope)
	store.Load(context.Background())
	store.MarkRead("n1")

	if _, err := os.Stat(filepath.Join(dir, "..", "outside")); !os.IsNotExist(err) {
		t.Fatalf("state escaped the device state directory: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one state file inside dir, got %d", len(entries))
	}

	// The same scope still round-trips through the flattened filename.
	state := NewDeviceStateStore(dir, scope).Load(context.Background())
	if !state.ReadIDs["n1"] {
		t.Error("state for flattened scope lost across reload")
	}
}

func TestDeviceStateBatchWrites(t *testing.T) {
	dir := t.TempDir()

	store := NewDeviceStateStore(dir, "device:abc")
	store.Load(context.Background())
	store.MarkManyRead([]string{"a", "b", "c"})
	store.MarkManyDeleted([]string{"b", "d"})

	state := NewDeviceStateStore(dir, "device:abc").Load(context.Background())
	for _, id := range []string{"a", "b", "c"} {
		if !state.ReadIDs[id] {
			t.Errorf("read id %s missing", id)
		}
	}
	for _, id := range []string{"b", "d"} {
		if !state.DeletedIDs[id] {
			t.Errorf("deleted id %s missing", id)
		}
	}
}
