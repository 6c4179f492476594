package clips

import (
	"fmt"
	"sync"
)

// DiskProbe reports on-disk byte counts for the storage directory.
// It is only consulted when the tracker is built.
type DiskProbe interface {
	FreeBytes(path string) (int64, error)
	FolderBytes(path string) (int64, error)
}

// CapacityState is a point-in-time copy of the tracker counters.
type CapacityState struct {
	MaxUsageBytes    int64 `json:"maxUsageBytes"`
	FolderUsageBytes int64 `json:"folderUsageBytes"`
	DiskFreeBytes    int64 `json:"diskFreeBytes"`
}

// Remaining returns min(max - usage, free). It may be negative.
func (s CapacityState) Remaining() int64 {
	return min(s.MaxUsageBytes-s.FolderUsageBytes, s.DiskFreeBytes)
}

// CapacityTracker keeps an in-process estimate of the remaining storage budget.
//
// Free disk space is probed once when the tracker is built and afterwards only
// decremented by committed uploads. Space consumed or released by anything
// else on the volume is not observed until the process restarts.
type CapacityTracker struct {
	mu    sync.RWMutex
	state CapacityState
}

// NewCapacityTracker returns a tracker seeded with known counters.
func NewCapacityTracker(maxUsage, folderUsage, diskFree int64) *CapacityTracker {
	return &CapacityTracker{state: CapacityState{
		MaxUsageBytes:    maxUsage,
		FolderUsageBytes: folderUsage,
		DiskFreeBytes:    diskFree,
	}}
}

// InitCapacity scans dir for its current usage and probes the free space of
// its volume. Either probe failing is returned as an error: there is no safe
// default for unknown capacity.
func InitCapacity(dir string, maxUsage int64, probe DiskProbe) (*CapacityTracker, error) {
	free, err := probe.FreeBytes(dir)
	if err != nil {
		return nil, fmt.Errorf("probe free space of %q: %w", dir, err)
	}
	used, err := probe.FolderBytes(dir)
	if err != nil {
		return nil, fmt.Errorf("measure folder size of %q: %w", dir, err)
	}
	return NewCapacityTracker(maxUsage, used, free), nil
}

// Remaining returns the number of bytes that may still be admitted.
// Zero or negative means no room.
func (c *CapacityTracker) Remaining() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Remaining()
}

// Record folds a committed upload of size bytes into the counters.
// Must be called exactly once per committed upload and never for rejected ones.
func (c *CapacityTracker) Record(size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.FolderUsageBytes += size
	c.state.DiskFreeBytes -= size
}

// Snapshot returns a copy of the current counters.
func (c *CapacityTracker) Snapshot() CapacityState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
