// Package cloud implements C9: the cloud backend façade. It presents a
// single Provider interface over two transports sharing the same endpoint
// set — a long-lived control-socket daemon and a one-shot CLI invocation —
// mirroring the way the teacher's synchronization/forwarding sessions
// present one session interface over SSH/Docker/tunnel transports that
// each speak the same agent protocol differently underneath.
package cloud

import (
	"context"
	"time"

	"github.com/browsey/browsey-core/pkg/cloudpath"
)

// EntryKind distinguishes a file from a directory in a cloud listing.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
)

// Entry is a single cloud directory-listing result, per spec section 3's
// CloudEntry: `{name, path, kind, size?, modified?, capabilities}`.
type Entry struct {
	Name         string
	Path         cloudpath.Path
	Kind         EntryKind
	Size         int64
	HasSize      bool
	Modified     time.Time
	HasModified  bool
	Capabilities Caps
}

// Caps is the coarse boolean capability matrix per spec section 3's
// CloudCaps, used by the surface layer to pre-disable operations the
// backend cannot perform, plus the case-sensitivity flag cloudpath.Equal/
// HasPrefix need (spec section 4.8: "case-sensitive comparison unless the
// backend is marked otherwise in CloudCaps").
type Caps struct {
	List            bool
	Mkdir           bool
	Delete          bool
	Rename          bool
	Move            bool
	Copy            bool
	Trash           bool
	Undo            bool
	Permissions     bool
	CaseInsensitive bool
}

// UploadEvent is passed to the progress callback uploads report through.
type UploadEvent struct {
	BytesSent  int64
	TotalBytes int64
}

// JobControl is the cooperative-cancellation token threaded through
// operations that may run as an async remote job: delete and copy/move.
// It mirrors pkg/tasks.Token's cancellation-check shape without importing
// pkg/tasks directly, so this package stays usable without pulling in the
// task registry.
type JobControl interface {
	Cancelled() bool
}

// Provider is the single interface both transports (control-socket daemon
// and one-shot CLI) implement identically, per spec section 4.9.
type Provider interface {
	ListRemotes(ctx context.Context) ([]string, error)
	Stat(ctx context.Context, path cloudpath.Path) (Entry, bool, error)
	ListDir(ctx context.Context, path cloudpath.Path) ([]Entry, error)
	Mkdir(ctx context.Context, path cloudpath.Path) error
	DeleteFile(ctx context.Context, path cloudpath.Path) error
	DeleteDirRecursive(ctx context.Context, path cloudpath.Path, job JobControl) error
	DeleteDirEmpty(ctx context.Context, path cloudpath.Path) error
	Move(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, job JobControl) error
	Copy(ctx context.Context, src, dst cloudpath.Path, overwrite, prechecked bool, job JobControl) error
	DownloadFile(ctx context.Context, cloud cloudpath.Path, local string) error
	UploadFileWithProgress(ctx context.Context, local string, cloud cloudpath.Path, onProgress func(UploadEvent), job JobControl) error
}
