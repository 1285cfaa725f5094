// Package sqlitepath resolves which history database a command should use.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvVar overrides the default history database location.
const EnvVar = "STUDYGUIDE_DB"

// DefaultName is the database file created under ~/.studyguide.
const DefaultName = "studyguide.db"

// ResolveSQLitePath returns the first of the candidate paths that is set,
// then $STUDYGUIDE_DB, then ~/.studyguide/studyguide.db. The parent
// directory of the default path is created if needed.
func ResolveSQLitePath(candidates ...string) (string, error) {
	for _, p := range candidates {
		if p != "" {
			return expandHome(p), nil
		}
	}
	if p := os.Getenv(EnvVar); p != "" {
		return expandHome(p), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	dir := filepath.Join(home, ".studyguide")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, DefaultName), nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
