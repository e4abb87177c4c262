// Package storage keeps recorded tapes in named boxes on disk.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tapedeck"

// Layout under the data directory:
//
//	db/          BadgerDB holding boxes and the saved session
//	inbox/       records picked up by the watch command
//	catalog.db   SQLite index of every stored tape
const (
	dbDirName   = "db"
	inboxName   = "inbox"
	catalogName = "catalog.db"
)

// GetDataDir returns the tapedeck data directory, creating it.
// It is tapedeck/ under Application Support on macOS, under %APPDATA% on
// Windows and under $XDG_DATA_HOME (default ~/.local/share) elsewhere.
func GetDataDir() (string, error) {
	base, err := baseDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
	if err != nil {
		return "", err
	}
	dataDir := filepath.Join(base, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// baseDir picks the per-user data root for goos.
func baseDir(goos string, getenv func(string) string, home func() (string, error)) (string, error) {
	var envKey string
	var fallback []string
	switch goos {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		envKey, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		envKey, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}

	if envKey != "" {
		if dir := getenv(envKey); dir != "" {
			return dir, nil
		}
	}
	homeDir, err := home()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{homeDir}, fallback...)...), nil
}

func subDir(name string) (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(dataDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetDatabaseDir returns the BadgerDB directory that holds the boxes.
func GetDatabaseDir() (string, error) {
	return subDir(dbDirName)
}

// GetInboxDir returns the directory the watch command imports from.
func GetInboxDir() (string, error) {
	return subDir(inboxName)
}

// GetCatalogPath returns the path of the SQLite catalog file.
func GetCatalogPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, catalogName), nil
}
