package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir returns the duoview runtime directory, creating it if needed. The base
// is chosen in order:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) the system temp dir
func Dir() (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		runUserDir := fmt.Sprintf("/run/user/%d", os.Getuid())
		if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
			base = runUserDir
		} else {
			base = filepath.Join(os.TempDir(), fmt.Sprintf("duoview-runtime-%d", os.Getuid()))
		}
	}

	dir := filepath.Join(base, "duoview")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon IPC socket path. DUOVIEW_SOCKET overrides it.
func SocketPath() (string, error) {
	if p := os.Getenv("DUOVIEW_SOCKET"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "duoview.sock"), nil
}
