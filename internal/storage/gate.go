package storage

import "os"

// DirGate grants access when Dir is an existing directory the process can
// read and write.
type DirGate struct {
	Dir string
}

func (g DirGate) CheckPermission() bool {
	info, err := os.Stat(g.Dir)
	if err != nil || !info.IsDir() {
		return false
	}
	return accessible(g.Dir)
}

// GateFunc adapts a plain function to PermissionGate.
type GateFunc func() bool

func (f GateFunc) CheckPermission() bool { return f() }
