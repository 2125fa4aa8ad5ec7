package cloud

import (
	"context"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloudpath"
)

// CheckOverwrite implements spec section 4.9's move/copy overwrite policy:
// same source and destination is always a no-op; when overwrite is false
// and prechecked is false, the destination is stat'd and a present entry
// yields DestinationExists; when prechecked is true the stat is skipped
// because the caller already verified the destination atomically
// upstream. stat is only invoked when a check is actually needed.
func CheckOverwrite(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, caseInsensitive bool, stat func(context.Context, cloudpath.Path) (Entry, bool, error)) (noop bool, err error) {
	if src.Equal(dst, caseInsensitive) {
		return true, nil
	}
	if overwrite || prechecked {
		return false, nil
	}
	_, exists, statErr := stat(ctx, dst)
	if statErr != nil {
		return false, statErr
	}
	if exists {
		return false, browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+dst.String())
	}
	return false, nil
}
