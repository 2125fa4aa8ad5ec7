package extract

import (
	"fmt"
	"os"
	"path/filepath"
)

// selectDestination implements spec section 4.6's destination rule:
// extraction always targets `<parent>/<stem>`, with a numeric suffix
// appended if that path already exists. When the archive's entries all
// share one top-level directory, the caller strips that component from
// each entry as it writes (see stripTopLevel in policy.go) so the
// archive's own wrapper folder is not duplicated inside <stem>.
func selectDestination(archivePath string) (string, error) {
	parent := filepath.Dir(archivePath)
	stem := StripArchiveSuffix(filepath.Base(archivePath))

	candidate := filepath.Join(parent, stem)
	for suffix := 0; ; suffix++ {
		path := candidate
		if suffix > 0 {
			path = fmt.Sprintf("%s-%d", candidate, suffix)
		}
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", err
		}
	}
}

// avoidOverwrite returns a unique sibling path for dst if it already
// exists, otherwise dst itself, per spec section 4.6's "existing
// destination files are renamed to a unique suffix" entry policy.
func avoidOverwrite(dst string) (string, error) {
	if _, err := os.Lstat(dst); os.IsNotExist(err) {
		return dst, nil
	} else if err != nil {
		return "", err
	}
	dir := filepath.Dir(dst)
	base := filepath.Base(dst)
	for suffix := 1; ; suffix++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d", base, suffix))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
	}
}
