package extract

import (
	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// Budget bounds a single extraction: total bytes written, total entries
// created, and a periodic disk-space floor check, per spec section 4.6.
type Budget struct {
	MaxTotalBytes      int64
	MaxEntries         int64
	CheckIntervalBytes int64
	FloorBytes         int64

	// DestinationForSpaceCheck is the path whose filesystem free space is
	// re-read every CheckIntervalBytes written. Left empty, the disk-space
	// guard is disabled (useful in tests running against a tmpfs with
	// artificially small budgets).
	DestinationForSpaceCheck string

	reservedBytes       int64
	reservedEntries     int64
	bytesSinceSpaceScan int64
}

// ReserveBytes accounts for n additional bytes about to be written. It
// fails once the running total would exceed MaxTotalBytes, and periodically
// re-checks available disk space against FloorBytes.
func (b *Budget) ReserveBytes(n int64) error {
	if b.MaxTotalBytes > 0 && b.reservedBytes+n > b.MaxTotalBytes {
		return browseyerr.New(browseyerr.TaskFailed, "extraction exceeded its total byte budget")
	}
	b.reservedBytes += n
	b.bytesSinceSpaceScan += n

	if b.CheckIntervalBytes > 0 && b.DestinationForSpaceCheck != "" && b.bytesSinceSpaceScan >= b.CheckIntervalBytes {
		b.bytesSinceSpaceScan = 0
		free, err := freeBytes(b.DestinationForSpaceCheck)
		if err == nil && free < uint64(b.FloorBytes) {
			return browseyerr.New(browseyerr.TaskFailed, "insufficient disk space to continue extraction")
		}
	}
	return nil
}

// ReserveEntry accounts for one additional entry about to be created,
// failing once MaxEntries would be exceeded.
func (b *Budget) ReserveEntry() error {
	if b.MaxEntries > 0 && b.reservedEntries+1 > b.MaxEntries {
		return browseyerr.New(browseyerr.TaskFailed, "extraction exceeded its maximum entry count")
	}
	b.reservedEntries++
	return nil
}
