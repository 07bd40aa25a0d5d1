//go:build !unix

package storage

import "os"

func accessible(dir string) bool {
	f, err := os.CreateTemp(dir, ".excelerate-access-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	return os.Remove(name) == nil
}
