package common

import (
	"os"
	"path/filepath"
)

const appName = "jukebox"

func CacheDir() string {
	return filepath.Join(cacheHome(), appName)
}

// StateDir holds logs.
func StateDir() string {
	return filepath.Join(stateHome(), appName)
}

// DefaultLogPath is where the player logs when no log file is given.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), appName+".log")
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func cacheHome() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func stateHome() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	dir := os.Getenv(env)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, fallback)
	}
	return dir
}
