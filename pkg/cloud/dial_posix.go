//go:build !windows

package cloud

import (
	"context"
	"net"
)

// dialControlSocket connects to the daemon's control socket, a Unix domain
// socket at path. Grounded on the teacher's pkg/ipc/ipc_posix.go dialing
// pattern: a zero-valued net.Dialer used purely for its DialContext
// cancellation support.
func dialControlSocket(ctx context.Context, path string) (net.Conn, error) {
	dialer := &net.Dialer{}
	return dialer.DialContext(ctx, "unix", path)
}
