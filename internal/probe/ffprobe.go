// Package probe measures media files with ffprobe.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single ffprobe invocation.
const DefaultTimeout = 15 * time.Second

// ErrNoDuration is returned when ffprobe output carries no usable duration.
var ErrNoDuration = errors.New("ffprobe reported no duration")

// FFprobe runs the ffprobe binary to read a clip's container duration.
type FFprobe struct {
	Bin     string
	Timeout time.Duration
}

// New returns an FFprobe for bin ("ffprobe" when empty).
func New(bin string, timeout time.Duration) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FFprobe{Bin: bin, Timeout: timeout}
}

// CheckAvailable fails when the binary cannot be found on PATH.
func (p *FFprobe) CheckAvailable() error {
	if _, err := exec.LookPath(p.Bin); err != nil {
		return fmt.Errorf("%s has to be in PATH: %w", p.Bin, err)
	}
	return nil
}

// ProbeDuration returns the duration of the media file at path in seconds.
func (p *FFprobe) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Bin, "-v", "error", "-i", path, "-show_format")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return 0, fmt.Errorf("ffprobe %s: %w", path, err)
		}
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, msg)
	}
	return ParseDuration(stdout.Bytes())
}

// ParseDuration extracts the duration=<seconds> field from ffprobe
// -show_format output.
func ParseDuration(out []byte) (float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok || key != "duration" {
			continue
		}
		d, err := strconv.ParseFloat(value, 64)
		if err != nil {
			// "N/A" for streams without a container duration.
			return 0, fmt.Errorf("%w: %q", ErrNoDuration, value)
		}
		return d, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, ErrNoDuration
}
