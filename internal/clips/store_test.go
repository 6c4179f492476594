package clips

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func writeStaging(t *testing.T, s *Store, id, content string) {
	t.Helper()
	f, err := s.Create(id)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestStore_CreateCommitOpen(t *testing.T) {
	s := newTestStore(t)
	writeStaging(t, s, "clip", "video-bytes")

	if _, _, err := s.Open("clip"); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("staged clip should not be visible before Commit, got %v", err)
	}
	if err := s.Commit("clip"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	f, info, err := s.Open("clip")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	got, _ := io.ReadAll(f)
	if string(got) != "video-bytes" || info.Size() != int64(len("video-bytes")) {
		t.Errorf("Open: got %q size %d", got, info.Size())
	}
	if _, err := os.Stat(s.stagingPath("clip")); !os.IsNotExist(err) {
		t.Error("staging file should be gone after Commit")
	}
}

func TestStore_Discard(t *testing.T) {
	s := newTestStore(t)
	writeStaging(t, s, "clip", "partial")

	if err := s.Discard("clip"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(s.stagingPath("clip")); !os.IsNotExist(err) {
		t.Error("staging file still exists after Discard")
	}
	if err := s.Discard("clip"); err != nil {
		t.Errorf("Discard of missing file should succeed, got %v", err)
	}
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	writeStaging(t, s, "clip", "x")
	if err := s.Commit("clip"); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove("clip"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove("clip"); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("second Remove: expected ErrClipNotFound, got %v", err)
	}
}

func TestStore_Path_layout(t *testing.T) {
	s := newTestStore(t)
	if got, want := s.Path("abc"), filepath.Join(s.Dir(), "abc.mp4"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestStore_SweepStaging(t *testing.T) {
	s := newTestStore(t)
	writeStaging(t, s, "a", "1")
	writeStaging(t, s, "b", "2")
	writeStaging(t, s, "keep", "3")
	if err := s.Commit("keep"); err != nil {
		t.Fatal(err)
	}

	n, err := s.SweepStaging()
	if err != nil {
		t.Fatalf("SweepStaging: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 1 || entries[0].Name() != "keep.mp4" {
		t.Errorf("unexpected directory contents after sweep: %v", entries)
	}
}

func TestNewStore_creates_dir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "clips")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestValidUploadID(t *testing.T) {
	valid := []string{"abc", "0b6f6e1e-2d3c-4a4b-9c8d-1e2f3a4b5c6d", "clip_01"}
	invalid := []string{"", "..", "../etc/passwd", "a/b", `a\b`, "x..y", "a\x00b"}
	for _, id := range valid {
		if !ValidUploadID(id) {
			t.Errorf("ValidUploadID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if ValidUploadID(id) {
			t.Errorf("ValidUploadID(%q) = true, want false", id)
		}
	}
}

func TestValidClipID(t *testing.T) {
	valid := []string{"0b6f6e1e-2d3c-4a4b-9c8d-1e2f3a4b5c6d", "0B6F6E1E-2D3C-4A4B-AC8D-1E2F3A4B5C6D"}
	invalid := []string{
		"",
		"not-a-uuid",
		"0b6f6e1e-2d3c-1a4b-9c8d-1e2f3a4b5c6d",          // version 1
		"0b6f6e1e-2d3c-4a4b-1c8d-1e2f3a4b5c6d",          // wrong variant
		"urn:uuid:0b6f6e1e-2d3c-4a4b-9c8d-1e2f3a4b5c6d", // non-canonical form
		"{0b6f6e1e-2d3c-4a4b-9c8d-1e2f3a4b5c6d}",
	}
	for _, id := range valid {
		if !ValidClipID(id) {
			t.Errorf("ValidClipID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if ValidClipID(id) {
			t.Errorf("ValidClipID(%q) = true, want false", id)
		}
	}
}
