// Package privilege drops superuser identity before any command can touch
// the filesystem.
package privilege

import (
	"fmt"
	"strconv"
)

// nobody is the fallback identity when the invoking user is unknown.
const nobody = 65534

// Identity is the process identity as seen by Drop. System returns the real
// implementation; tests substitute a fake.
type Identity interface {
	Geteuid() int
	Setgroups(gids []int) error
	Setgid(gid int) error
	Setuid(uid int) error
}

// Target returns the uid and gid to drop to: the sudo caller when SUDO_UID
// and SUDO_GID name a non-root user, nobody otherwise.
func Target(getenv func(string) string) (uid, gid int) {
	uid, gid = nobody, nobody
	if v, err := strconv.Atoi(getenv("SUDO_UID")); err == nil && v > 0 {
		uid = v
		gid = v
		if g, err := strconv.Atoi(getenv("SUDO_GID")); err == nil && g > 0 {
			gid = g
		}
	}
	return uid, gid
}

// Drop lowers the process to an unprivileged identity when it runs as root.
// A nil Identity means the host cannot change identity and Drop does nothing.
// It reports whether a drop happened.
func Drop(id Identity, getenv func(string) string) (bool, error) {
	if id == nil || id.Geteuid() != 0 {
		return false, nil
	}
	uid, gid := Target(getenv)
	if err := id.Setgroups(nil); err != nil {
		return false, fmt.Errorf("privilege.Drop setgroups: %w", err)
	}
	if err := id.Setgid(gid); err != nil {
		return false, fmt.Errorf("privilege.Drop setgid %d: %w", gid, err)
	}
	if err := id.Setuid(uid); err != nil {
		return false, fmt.Errorf("privilege.Drop setuid %d: %w", uid, err)
	}
	return true, nil
}
