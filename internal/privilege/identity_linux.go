//go:build linux

package privilege

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// linuxIdentity changes credentials through package syscall, which applies
// them to every thread of the process. unix.Setgroups only touches the
// calling thread.
type linuxIdentity struct{}

// System returns the identity of the running process.
func System() Identity { return linuxIdentity{} }

func (linuxIdentity) Geteuid() int               { return unix.Geteuid() }
func (linuxIdentity) Setgroups(gids []int) error { return syscall.Setgroups(gids) }
func (linuxIdentity) Setgid(gid int) error       { return syscall.Setgid(gid) }
func (linuxIdentity) Setuid(uid int) error       { return syscall.Setuid(uid) }
