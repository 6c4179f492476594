// Package disk measures the storage volume and directory at startup.
package disk

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// ErrUnsupported is returned by FreeBytes on platforms without a free-space probe.
var ErrUnsupported = errors.New("free space probe not supported on this platform")

// Probe implements the clips.DiskProbe contract against the real filesystem.
type Probe struct{}

// FreeBytes returns the bytes available to this process on the volume holding path.
func (Probe) FreeBytes(path string) (int64, error) {
	n, err := freeBytes(path)
	if err != nil {
		return 0, fmt.Errorf("free space: %w", err)
	}
	return n, nil
}

// FolderBytes returns the summed size of all regular files below path.
func (Probe) FolderBytes(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("folder size: %w", err)
	}
	return total, nil
}
