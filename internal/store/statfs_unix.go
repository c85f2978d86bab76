//go:build linux || darwin

package store

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// statfs reports the filesystem holding dir. Used counts everything not
// available to an unprivileged writer.
func statfs(dir string) (uint64, uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	bsize := uint64(st.Bsize) //nolint:gosec // G115: block size is positive
	total := st.Blocks * bsize
	avail := st.Bavail * bsize
	if avail > total {
		avail = total
	}
	return total, total - avail, nil
}
