//go:build !unix

package privilege

// System returns nil: identity changes are not supported on this host.
func System() Identity { return nil }
