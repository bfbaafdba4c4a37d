// Package utils provides small path helpers shared by the command layer.
package utils

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands a leading tilde and environment variables in path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		path = s
	}
	return os.ExpandEnv(path)
}

// AbsPath returns the absolute form of path, or path itself if it cannot
// be resolved.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
