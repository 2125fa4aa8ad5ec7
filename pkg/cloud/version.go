package cloud

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/clock"
)

// minimumVersion is the lowest (major, minor, patch) the external binary
// may report, per spec section 4.9's startup version probe.
var minimumVersion = [3]int{1, 67, 0}

// versionFailureRetryBackoff is how long a failed probe is cached before
// being retried, so a recoverable "binary missing" situation heals once
// the binary appears rather than staying cached as a failure forever.
const versionFailureRetryBackoff = 30 * time.Second

// ParseVersionLine parses the first line of `rclone version` output,
// "rclone v<major>.<minor>.<patch>" (with any non-digit suffix per
// component stripped, e.g. "v1.67.0-beta"), returning a ParseFailed error
// if the line does not have that shape. It does not compare the result
// against minimumVersion; VersionProbe.Check does that.
func ParseVersionLine(line string) (major, minor, patch int, err error) {
	line = strings.TrimSpace(line)
	const prefix = "rclone v"
	if !strings.HasPrefix(line, prefix) {
		return 0, 0, 0, browseyerr.New(browseyerr.ParseFailed, "unrecognized version line: "+line)
	}
	rest := line[len(prefix):]
	parts := strings.SplitN(rest, ".", 3)
	if len(parts) < 3 {
		return 0, 0, 0, browseyerr.New(browseyerr.ParseFailed, "malformed version string: "+line)
	}
	major, err1 := strconv.Atoi(stripNonDigitSuffix(parts[0]))
	minor, err2 := strconv.Atoi(stripNonDigitSuffix(parts[1]))
	patch, err3 := strconv.Atoi(stripNonDigitSuffix(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, browseyerr.New(browseyerr.ParseFailed, "malformed version components: "+line)
	}
	return major, minor, patch, nil
}

func stripNonDigitSuffix(component string) string {
	for i, r := range component {
		if r < '0' || r > '9' {
			return component[:i]
		}
	}
	return component
}

// VersionAtLeastMinimum reports whether (major, minor, patch) meets
// minimumVersion.
func VersionAtLeastMinimum(major, minor, patch int) bool {
	got := [3]int{major, minor, patch}
	for i := range got {
		if got[i] > minimumVersion[i] {
			return true
		}
		if got[i] < minimumVersion[i] {
			return false
		}
	}
	return true
}

// versionProbeResult caches the outcome of a single version probe.
type versionProbeResult struct {
	checkedAt time.Time
	err       error
}

// VersionProbe caches the startup version-probe outcome, re-running it
// only once per versionFailureRetryBackoff after a failure, per spec
// section 4.9.
type VersionProbe struct {
	mu     sync.Mutex
	clock  clock.Clock
	result *versionProbeResult
}

// NewVersionProbe creates a VersionProbe using c for its cooldown timing.
func NewVersionProbe(c clock.Clock) *VersionProbe {
	return &VersionProbe{clock: c}
}

// Check runs probe (expected to invoke the external binary's `version`
// subcommand and parse its first line) unless a cached success exists, or
// a cached failure is still within its retry backoff.
func (p *VersionProbe) Check(probe func() (string, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if p.result != nil {
		if p.result.err == nil {
			return nil
		}
		if now.Sub(p.result.checkedAt) < versionFailureRetryBackoff {
			return p.result.err
		}
	}

	line, err := probe()
	if err == nil {
		major, minor, patch, parseErr := ParseVersionLine(line)
		if parseErr != nil {
			err = parseErr
		} else if !VersionAtLeastMinimum(major, minor, patch) {
			err = browseyerr.New(browseyerr.Unsupported, "backend binary version is below the minimum supported version")
		}
	}
	p.result = &versionProbeResult{checkedAt: now, err: err}
	return err
}
