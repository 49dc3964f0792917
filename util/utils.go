package util

import (
	"os"
	"path/filepath"
	"strings"
)

// GetAbsolutePath resolves relativePath against the working directory.
// Absolute paths are returned unchanged.
func GetAbsolutePath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return relativePath, nil
	}

	root, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, relativePath), nil
}

// SplitList splits a comma separated environment value into trimmed, non-empty items
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func StringPtr(s string) *string {
	return &s
}

func Float64Ptr(f float64) *float64 {
	return &f
}
