package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUser replaces a leading ~ with $HOME.
func ExpandUser(path string) string {
	if path == "~" {
		return os.Getenv("HOME")
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(os.Getenv("HOME"), path[2:])
	}
	return path
}
