package infra

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	AppName = "snipe-go"
)

// GetWorkspaceDir returns the root directory for runtime data.
// A local "_workspace" directory wins (portable/dev mode); otherwise the OS data dir is used.
func GetWorkspaceDir() string {
	localDir := "_workspace"
	if _, err := os.Stat(localDir); err == nil {
		return localDir
	}

	var baseDir string
	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, "Library", "Application Support")
	case "linux":
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome != "" {
			baseDir = dataHome
		} else {
			home, _ := os.UserHomeDir()
			baseDir = filepath.Join(home, ".local", "share")
		}
	default:
		return localDir
	}

	return filepath.Join(baseDir, AppName)
}

// DefaultDBPath returns the market cache location under the workspace dir.
func DefaultDBPath() string {
	return filepath.Join(GetWorkspaceDir(), "data", "markets.db")
}
