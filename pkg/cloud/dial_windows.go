//go:build windows

package cloud

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// dialControlSocket connects to the daemon's control socket, a named pipe
// whose name is path. Grounded on the teacher's pkg/ipc/ipc_windows.go,
// which dials named pipes through go-winio rather than attempting a raw
// Unix-domain-socket dial on a platform that lacks one.
func dialControlSocket(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
