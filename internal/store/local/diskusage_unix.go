//go:build !windows

package local

import "syscall"

// diskUsage returns total and available bytes for the filesystem
// containing path.
func diskUsage(path string) (total uint64, free uint64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bs := uint64(st.Bsize)
	total = uint64(st.Blocks) * bs
	free = uint64(st.Bavail) * bs
	return total, free, nil
}
