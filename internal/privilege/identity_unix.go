//go:build unix && !linux

package privilege

import "golang.org/x/sys/unix"

type unixIdentity struct{}

// System returns the identity of the running process.
func System() Identity { return unixIdentity{} }

func (unixIdentity) Geteuid() int               { return unix.Geteuid() }
func (unixIdentity) Setgroups(gids []int) error { return unix.Setgroups(gids) }
func (unixIdentity) Setgid(gid int) error       { return unix.Setgid(gid) }
func (unixIdentity) Setuid(uid int) error       { return unix.Setuid(uid) }
