package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tychoish/fun/adt"
)

var homeDir = adt.NewOnce(func() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return os.Getenv("HOME")
})

// GetHomedir returns the current user's home directory, or an empty string
// when it cannot be determined.
func GetHomedir() string { return homeDir.Resolve() }

// ExpandHomedir replaces a leading "~" with the home directory. Paths in
// the "~user" form are returned unchanged.
func ExpandHomedir(in string) string {
	if in == "" || in[0] != '~' {
		return in
	}

	if len(in) > 1 && in[1] != '/' && in[1] != '\\' {
		return in
	}

	home := GetHomedir()
	if home == "" {
		return in
	}

	return filepath.Join(home, strings.TrimLeft(in[1:], `/\`))
}
