// Package transfer implements C12: MixedTransfer, the local<->cloud
// transfer orchestrator. It classifies a batch of sources and one
// destination as a local-to-cloud or cloud-to-local route, then drives
// C9's Provider (through C11's per-remote admission and C10's cache
// invalidation) or a local primitive for each source in turn. Grounded on
// the teacher's pkg/synchronization/core transition application loop,
// which walks a list of pending content changes applying each with
// progress and a between-entries cancellation check — generalized here
// from one sync session's change list to one transfer batch's source
// list, and from a single transport to the local/cloud split.
package transfer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/cloud"
	"github.com/browsey/browsey-core/pkg/cloudadmission"
	"github.com/browsey/browsey-core/pkg/cloudcache"
	"github.com/browsey/browsey-core/pkg/cloudpath"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
)

// cloudPrefix is how a string endpoint is recognized as a cloud path, per
// spec section 4.12 and cloudpath's own serialized form.
const cloudPrefix = "rclone://"

// Route is the only two allowed directions for a mixed transfer batch.
type Route int

const (
	LocalToCloud Route = iota
	CloudToLocal
)

// Mode selects copy or move semantics for the batch.
type Mode int

const (
	Copy Mode = iota
	Move
)

// IsCloud reports whether raw addresses a cloud path by its "rclone://"
// prefix.
func IsCloud(raw string) bool {
	return strings.HasPrefix(raw, cloudPrefix)
}

// Classify determines the single route a batch of sources plus a
// destination must take. Any mix of local and cloud sources, or a
// local-to-local pair, is rejected — those are ClipboardOps' job, per spec
// section 4.12. A cloud-to-cloud pair is likewise rejected: it isn't one
// of the two routes this component drives.
func Classify(sources []string, destination string) (Route, error) {
	if len(sources) == 0 {
		return 0, browseyerr.New(browseyerr.InvalidInput, "transfer batch must have at least one source")
	}

	destCloud := IsCloud(destination)
	var sawLocal, sawCloud bool
	for _, s := range sources {
		if IsCloud(s) {
			sawCloud = true
		} else {
			sawLocal = true
		}
	}
	if sawLocal && sawCloud {
		return 0, browseyerr.New(browseyerr.InvalidInput, "transfer batch mixes local and cloud sources")
	}

	switch {
	case sawLocal && destCloud:
		return LocalToCloud, nil
	case sawCloud && !destCloud:
		return CloudToLocal, nil
	default:
		return 0, browseyerr.New(browseyerr.InvalidInput, "only local-to-cloud and cloud-to-local transfers are supported here")
	}
}

// Request describes one transfer batch.
type Request struct {
	Sources     []string
	Destination string
	Mode        Mode
	Overwrite   bool
	Prechecked  bool
}

// Result is the outcome of transferring one source.
type Result struct {
	Source      string
	Destination string
	Err         error
}

// ProgressFunc reports upload progress for the source currently being
// transferred. Only LocalToCloud transfers report progress; it is never
// called for a download.
type ProgressFunc func(source string, event cloud.UploadEvent)

// Transfer drives a mixed transfer batch against a cloud.Provider, gating
// remote access through an Admission and keeping a listing Cache coherent.
type Transfer struct {
	provider  cloud.Provider
	admission *cloudadmission.Admission
	cache     *cloudcache.Cache
}

// New creates a Transfer. admission and cache may be nil, in which case
// their steps are skipped (useful for tests exercising the provider in
// isolation).
func New(provider cloud.Provider, admission *cloudadmission.Admission, cache *cloudcache.Cache) *Transfer {
	return &Transfer{provider: provider, admission: admission, cache: cache}
}

// Run executes req, transferring each source in turn and checking job for
// cancellation between sources. A per-source failure is recorded in that
// source's Result and does not abort the remaining sources; a
// cancellation stops the batch immediately, with no Result recorded for
// the sources not yet attempted.
func (t *Transfer) Run(ctx context.Context, req Request, onProgress ProgressFunc, job cloud.JobControl) ([]Result, error) {
	route, err := Classify(req.Sources, req.Destination)
	if err != nil {
		return nil, err
	}
	if route == CloudToLocal && req.Mode == Move {
		return nil, browseyerr.New(browseyerr.InvalidInput, "move is not supported for cloud-to-local transfers")
	}

	results := make([]Result, 0, len(req.Sources))
	for _, source := range req.Sources {
		if job != nil && job.Cancelled() {
			return results, browseyerr.New(browseyerr.Cancelled, "transfer batch cancelled")
		}

		var dest string
		var transferErr error
		switch route {
		case LocalToCloud:
			dest, transferErr = t.transferLocalToCloud(ctx, source, req, onProgress, job)
		case CloudToLocal:
			dest, transferErr = t.transferCloudToLocal(ctx, source, req)
		}
		results = append(results, Result{Source: source, Destination: dest, Err: transferErr})
	}
	return results, nil
}

func (t *Transfer) transferLocalToCloud(ctx context.Context, source string, req Request, onProgress ProgressFunc, job cloud.JobControl) (string, error) {
	destRoot, err := cloudpath.Parse(req.Destination)
	if err != nil {
		return "", err
	}
	leaf := filepath.Base(source)
	target, err := destRoot.Join(leaf)
	if err != nil {
		return "", err
	}

	if err := t.checkCloudOverwrite(ctx, target, req); err != nil {
		return target.String(), err
	}

	release, err := t.acquireRemote(ctx, target.Remote())
	if err != nil {
		return target.String(), err
	}
	defer release()

	progress := func(event cloud.UploadEvent) {
		if onProgress != nil {
			onProgress(source, event)
		}
	}
	if err := t.provider.UploadFileWithProgress(ctx, source, target, progress, job); err != nil {
		return target.String(), err
	}

	if t.cache != nil {
		t.cache.Invalidate(target)
	}

	if req.Mode == Move {
		if err := fsprimitives.DeleteEntry(source, cancelledFrom(job)); err != nil {
			return target.String(), err
		}
	}
	return target.String(), nil
}

func (t *Transfer) transferCloudToLocal(ctx context.Context, source string, req Request) (string, error) {
	srcPath, err := cloudpath.Parse(source)
	if err != nil {
		return "", err
	}
	leaf, err := srcPath.Leaf()
	if err != nil {
		return "", err
	}
	localDst := filepath.Join(req.Destination, leaf)

	if !req.Prechecked && !req.Overwrite {
		if _, statErr := os.Lstat(localDst); statErr == nil {
			return localDst, browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+localDst)
		}
	}

	release, err := t.acquireRemote(ctx, srcPath.Remote())
	if err != nil {
		return localDst, err
	}
	defer release()

	if err := t.provider.DownloadFile(ctx, srcPath, localDst); err != nil {
		return localDst, err
	}
	return localDst, nil
}

// checkCloudOverwrite performs the per-transfer overwrite check for a
// cloud destination via a provider stat, per spec section 4.12.
func (t *Transfer) checkCloudOverwrite(ctx context.Context, target cloudpath.Path, req Request) error {
	if req.Prechecked || req.Overwrite {
		return nil
	}
	_, exists, err := t.provider.Stat(ctx, target)
	if err != nil {
		return err
	}
	if exists {
		return browseyerr.New(browseyerr.DestinationExists, "destination already exists: "+target.String())
	}
	return nil
}

func (t *Transfer) acquireRemote(ctx context.Context, remote string) (func(), error) {
	if t.admission == nil {
		return func() {}, nil
	}
	guard, err := t.admission.Acquire(ctx, []string{remote})
	if err != nil {
		return nil, err
	}
	return guard.Release, nil
}

func cancelledFrom(job cloud.JobControl) fsprimitives.Cancelled {
	if job == nil {
		return nil
	}
	return job.Cancelled
}
