//go:build !windows
// +build !windows

package clipboard

import (
	"bufio"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// tryGioCopyProgress shells out to `gio copy --progress`, the desktop
// GVFS client binary, for a single-file copy where src or dst lives under
// a GVFS mount (network shares GNOME exposes as regular paths). Direct
// chunked reads against a GVFS mount can stall or thrash the daemon; gio
// already speaks the remote protocol natively. Grounded on
// original_source/src/clipboard/ops.rs's try_gio_copy_progress: spawn the
// helper, read its stdout line by line, and treat any line containing two
// ascending integers as "bytes transferred, total bytes". ok is false
// (never an error) when gio itself is unavailable or declines to run, so
// the caller falls back to the built-in chunked copy.
func tryGioCopyProgress(src, dst string, progress Progress, cancelled fsprimitives.Cancelled) (ok bool, err error) {
	if _, statErr := os.Lstat(dst); statErr == nil {
		return false, browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+dst)
	}

	cmd := exec.Command("gio", "copy", "--progress", src, dst)
	stdout, pipeErr := cmd.StdoutPipe()
	if pipeErr != nil {
		return false, nil
	}
	cmd.Stderr = nil

	if startErr := cmd.Start(); startErr != nil {
		return false, nil
	}

	var lastBytes int64
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if cancelled != nil && cancelled() {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return false, browseyerr.New(browseyerr.Cancelled, "copy cancelled")
		}
		transferred, total, matched := parseGioProgressLine(scanner.Text())
		if !matched {
			continue
		}
		lastBytes = transferred
		if progress != nil {
			progress(transferred)
		}
		_ = total
	}

	if waitErr := cmd.Wait(); waitErr != nil {
		return false, nil
	}
	if progress != nil {
		progress(lastBytes)
	}
	return true, nil
}

// parseGioProgressLine extracts the two ascending integers (transferred,
// total) gio's --progress output reports per line, the same permissive
// "every run of digits is a candidate" parse original_source uses rather
// than matching gio's exact column layout, which varies across versions.
func parseGioProgressLine(line string) (transferred, total int64, matched bool) {
	var nums []int64
	var digits strings.Builder
	flush := func() {
		if digits.Len() == 0 {
			return
		}
		if v, err := strconv.ParseInt(digits.String(), 10, 64); err == nil {
			nums = append(nums, v)
		}
		digits.Reset()
	}
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	if len(nums) < 2 || nums[0] > nums[1] {
		return 0, 0, false
	}
	return nums[0], nums[1], true
}
