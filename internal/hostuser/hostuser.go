// Package hostuser resolves the invoking user's numeric id on the host.
package hostuser

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// ResolveUID returns the numeric user id of the invoking user.
// The USER environment variable takes precedence (it names the user who
// launched the tool, even under su/sudo); if it is unset or names an unknown
// user, the process owner is used instead.
func ResolveUID() (int, error) {
	if name := os.Getenv("USER"); name != "" {
		if u, err := user.Lookup(name); err == nil {
			uid, err := strconv.Atoi(u.Uid)
			if err == nil {
				return uid, nil
			}
		}
	}

	if u, err := user.Current(); err == nil {
		if uid, err := strconv.Atoi(u.Uid); err == nil {
			return uid, nil
		}
	}

	uid := os.Getuid()
	if uid < 0 {
		return 0, fmt.Errorf("numeric user ids are not available on this platform")
	}
	return uid, nil
}
