package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppDataDir returns the default per-OS application data directory for the
// given app name, mirroring the btcsuite AppDataDir helper the teacher's
// config package imports (not vendored in this pack, so reimplemented here
// rather than left unresolved).
func AppDataDir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := strings.ToUpper(appName[:1]) + appName[1:]
	appNameLower := strings.ToLower(appName)

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if roaming {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, "Library", "Application Support", appNameUpper)
		}
	case "plan9":
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, appNameLower)
		}
	default:
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, "."+appNameLower)
		}
	}
	return "."
}
