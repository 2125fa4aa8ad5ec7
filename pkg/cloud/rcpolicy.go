package cloud

import (
	"runtime"

	"github.com/browsey/browsey-core/pkg/environment"
)

// RCPolicy gates whether RcloneProvider attempts the control-socket daemon
// transport for read and write endpoints independently, per spec section
// 6's BROWSEY_RCLONE_RC/BROWSEY_RCLONE_RC_READ/BROWSEY_RCLONE_RC_WRITE
// environment toggles: "unset defaults to enabled on POSIX Linux, off
// elsewhere." Disabled on Overall disables both directions regardless of
// the per-direction setting; otherwise an explicit Read or Write setting
// wins for its direction, and an unset one takes Overall's resolved value.
type RCPolicy struct {
	Overall environment.TriState
	Read    environment.TriState
	Write   environment.TriState
}

// RCPolicyFromEnvironment reads the three BROWSEY_RCLONE_RC* variables.
func RCPolicyFromEnvironment() RCPolicy {
	return RCPolicy{
		Overall: environment.ParseTriState("BROWSEY_RCLONE_RC"),
		Read:    environment.ParseTriState("BROWSEY_RCLONE_RC_READ"),
		Write:   environment.ParseTriState("BROWSEY_RCLONE_RC_WRITE"),
	}
}

// defaultRCEnabled is the platform default named in spec section 6: on by
// default on Linux, off everywhere else (macOS sandboxing and Windows
// named-pipe differences make the control socket less reliable there).
func defaultRCEnabled() bool {
	return runtime.GOOS == "linux"
}

func (p RCPolicy) allowsDaemon(endpoint Endpoint) bool {
	base := p.Overall.Resolve(defaultRCEnabled())
	if p.Overall == environment.Disabled {
		return false
	}
	if IsReadEndpoint(endpoint) {
		return p.Read.Resolve(base)
	}
	return p.Write.Resolve(base)
}
