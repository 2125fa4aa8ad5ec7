package thumbnail

import (
	"context"
	"io"
	"time"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// Timeout classes named in spec section 4.14: how long a single decode
// read may run before it is treated as stuck and interrupted. Virtual
// mounts (network/FUSE-backed paths) get the most generous plain timeout
// since a single read can legitimately take longer; HDR/EXR decodes are
// slower to parse than ordinary images; "combination" covers a decode
// that is both HDR and on a virtual mount, which gets the longest class
// of all.
const (
	TimeoutRegular     = 2 * time.Second
	TimeoutVirtualMount = 8 * time.Second
	TimeoutHDR          = 6 * time.Second
	TimeoutCombination  = 12 * time.Second
)

// TimeoutFor selects the timeout class for a decode given its mount type
// and whether the format is HDR/EXR.
func TimeoutFor(mount Mount, hdr bool) time.Duration {
	switch {
	case hdr && mount == MountVirtual:
		return TimeoutCombination
	case hdr:
		return TimeoutHDR
	case mount == MountVirtual:
		return TimeoutVirtualMount
	default:
		return TimeoutRegular
	}
}

// cancellableReader wraps an io.Reader so that once ctx is done, the next
// Read call returns immediately with an "Interrupted" condition instead
// of blocking on a stuck underlying read. There is no dedicated
// browseyerr.Code for this condition; Cancelled is the closest semantic
// fit (the read was stopped on purpose, not because of a resource
// failure), so a worker-crash distinct from a timeout maps to
// browseyerr.TaskFailed instead (see decode.go).
type cancellableReader struct {
	ctx context.Context
	r   io.Reader
}

// newCancellableReader wraps r with parent, which the caller is expected
// to already have deadlined via TimeoutFor; this does not impose a
// second, independent deadline.
func newCancellableReader(parent context.Context, r io.Reader) *cancellableReader {
	return &cancellableReader{ctx: parent, r: r}
}

func (c *cancellableReader) Read(p []byte) (int, error) {
	select {
	case <-c.ctx.Done():
		return 0, browseyerr.Wrap(browseyerr.Cancelled, c.ctx.Err(), "thumbnail decode read interrupted")
	default:
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := c.r.Read(p)
		done <- result{n, err}
	}()

	select {
	case res := <-done:
		return res.n, res.err
	case <-c.ctx.Done():
		return 0, browseyerr.Wrap(browseyerr.Cancelled, c.ctx.Err(), "thumbnail decode read interrupted")
	}
}
