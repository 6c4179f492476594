//go:build linux || darwin

package disk

import "golang.org/x/sys/unix"

// freeBytes uses Bavail rather than Bfree so root-reserved blocks, which an
// unprivileged service cannot write to, are not counted.
func freeBytes(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}
