package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Locate looks for a bundle named baseName in dir. The obfuscated variant
// wins when both exist. A missing bundle is not an error: ok is false.
func Locate(dir, baseName string) (c Candidate, ok bool) {
	binPath := filepath.Join(dir, baseName+ExtObfuscated)
	if isFile(binPath) {
		return Candidate{Path: binPath, Obfuscated: true}, true
	}

	zipPath := filepath.Join(dir, baseName+ExtPlain)
	if isFile(zipPath) {
		return Candidate{Path: zipPath}, true
	}

	slog.Debug("No bundle found", "dir", dir, "name", baseName)
	return Candidate{}, false
}

// ExecutableDir returns the directory holding the running executable, with
// symlinks resolved. The resolver searches here for bundles by default.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
