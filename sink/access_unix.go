//go:build unix

package sink

import "golang.org/x/sys/unix"

// writable reports whether the process may append to path
func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
