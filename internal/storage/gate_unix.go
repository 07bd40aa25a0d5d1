//go:build unix

package storage

import "golang.org/x/sys/unix"

func accessible(dir string) bool {
	return unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK) == nil
}
