package config

import "runtime"

// defaultShell picks a POSIX shell at configuration time rather than
// hardcoding one (spec §9 "Shell portability"). Windows substitutes the
// native command interpreter; every other platform gets /bin/sh, which
// is present on every POSIX system regardless of the user's login shell.
func defaultShell() string {
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "/bin/sh"
}
