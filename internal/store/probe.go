package store

import "syscall"

// processAlive checks whether pid refers to a live process using signal 0,
// which performs the existence check without delivering anything. EPERM
// means the process exists but belongs to another user.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
