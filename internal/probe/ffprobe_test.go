package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleFormat = `[FORMAT]
filename=clip.mp4
nb_streams=2
format_name=mov,mp4,m4a,3gp,3g2,mj2
start_time=0.000000
duration=12.480000
size=1048576
bit_rate=672164
[/FORMAT]
`

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration([]byte(sampleFormat))
	if err != nil {
		t.Fatalf("ParseDuration: %v", err)
	}
	if d != 12.48 {
		t.Errorf("duration = %v, want 12.48", d)
	}
}

func TestParseDuration_missing(t *testing.T) {
	_, err := ParseDuration([]byte("[FORMAT]\nfilename=x\n[/FORMAT]\n"))
	if !errors.Is(err, ErrNoDuration) {
		t.Errorf("expected ErrNoDuration, got %v", err)
	}
}

func TestParseDuration_not_available(t *testing.T) {
	_, err := ParseDuration([]byte("duration=N/A\n"))
	if !errors.Is(err, ErrNoDuration) {
		t.Errorf("expected ErrNoDuration for N/A, got %v", err)
	}
}

func TestNew_defaults(t *testing.T) {
	p := New("", 0)
	if p.Bin != "ffprobe" {
		t.Errorf("Bin = %q, want ffprobe", p.Bin)
	}
	if p.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", p.Timeout, DefaultTimeout)
	}
}

func TestCheckAvailable_missing_binary(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "no-such-ffprobe"), time.Second)
	if err := p.CheckAvailable(); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestProbeDuration_missing_binary(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("not a video"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := New(filepath.Join(dir, "no-such-ffprobe"), time.Second)
	if _, err := p.ProbeDuration(context.Background(), clip); err == nil {
		t.Error("expected error when ffprobe cannot run")
	}
}
