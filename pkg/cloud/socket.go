package cloud

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// socketDirEnvironmentVariable overrides where daemon control sockets are
// created, mirroring fsprimitives.BackupBaseEnvironmentVariable's pattern
// of a single environment escape hatch for a runtime directory.
const socketDirEnvironmentVariable = "BROWSEY_CLOUD_SOCKET_DIR"

// defaultRuntimeSocketPath derives a per-binary-identity control-socket
// path under the platform runtime/cache directory, so that two daemons for
// different binary identities (e.g. two different rclone builds on PATH)
// never collide on the same socket file.
func defaultRuntimeSocketPath(binaryIdentity string) (string, error) {
	dir := os.Getenv(socketDirEnvironmentVariable)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "browsey", "cloud")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(binaryIdentity))
	name := hex.EncodeToString(sum[:])[:16] + ".sock"
	return filepath.Join(dir, name), nil
}
