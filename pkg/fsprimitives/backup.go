package fsprimitives

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// BackupBaseEnvironmentVariable is the BROWSEY_UNDO_DIR override named in
// spec section 6.
const BackupBaseEnvironmentVariable = "BROWSEY_UNDO_DIR"

// bucketDigestLength is the number of hash bytes (rendered as hex) used for
// the bucket directory name, giving a 16-hex-character bucket per spec
// section 3, grounded on the teacher's staging.pathForStaging bucketing
// (which buckets on the first byte of a content digest rather than a path
// hash, but the same sharding idea).
const bucketDigestLength = 8

// DefaultBackupBase resolves the process-wide undo backup base directory:
// BROWSEY_UNDO_DIR if set (spec section 6), otherwise `browsey/undo` under
// the user cache directory (os.UserCacheDir), or under os.TempDir() when
// that cannot be resolved. The platform data directory is not used. Callers needing a TemporaryBackupPath base without a more
// specific override (ClipboardOps collisions, ExtractEngine's rollback
// Create action) use this so every backup lands under the same tree the
// undo history expects to find it in.
func DefaultBackupBase() string {
	if dir := os.Getenv(BackupBaseEnvironmentVariable); dir != "" {
		return dir
	}
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "browsey", "undo")
	}
	return filepath.Join(os.TempDir(), "browsey", "undo")
}

// TemporaryBackupPath deterministically derives the backup path for
// original under base (the process-wide undo base directory): a 16-hex
// bucket directory hashed from the absolute original path, then the
// original's leaf name, with a numeric suffix appended to avoid collision
// with any existing file.
func TemporaryBackupPath(base, original string) (string, error) {
	if !filepath.IsAbs(base) {
		return "", browseyerr.New(browseyerr.PathNotAbsolute, "undo base directory must be absolute: "+base)
	}
	if base == string(filepath.Separator) {
		return "", browseyerr.New(browseyerr.InvalidInput, "undo base directory must not be the filesystem root")
	}

	digest := sha1.Sum([]byte(original))
	bucket := fmt.Sprintf("%x", digest[:bucketDigestLength])

	bucketDir := filepath.Join(base, bucket)
	if err := os.MkdirAll(bucketDir, 0700); err != nil {
		return "", browseyerr.Wrap(browseyerr.IOError, err, "unable to create backup bucket "+bucketDir)
	}

	leaf := filepath.Base(original)
	candidate := filepath.Join(bucketDir, leaf)
	for suffix := 0; ; suffix++ {
		if suffix > 0 {
			candidate = filepath.Join(bucketDir, fmt.Sprintf("%s-%d", leaf, suffix))
		}
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat backup candidate "+candidate)
		}
	}
}
