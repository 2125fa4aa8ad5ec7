package thumbnail

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/logging"
)

// MountClassifier reports the Mount a path lives on. Production code
// wires this to the filesystem-mount detection used elsewhere in this
// module; tests substitute a fixed answer.
type MountClassifier func(path string) Mount

// Pipeline is the C14 ThumbnailPipeline entry point: it combines the
// content-addressed cache, in-flight dedup, decode admission, and
// per-format decoders into one Generate call.
type Pipeline struct {
	cacheDir    string
	maxBytes    int64
	maxFiles    int
	admission   *Admission
	inflight    *inflight
	classifyDir MountClassifier
	log         *logging.Logger

	generated uint64 // count of thumbnails generated, for trim cadence
}

// NewPipeline creates a Pipeline writing into cacheDir, with a decode
// admission semaphore sized for poolThreads, per spec section 4.14.
func NewPipeline(cacheDir string, poolThreads int, maxBytes int64, maxFiles int, classify MountClassifier, log *logging.Logger) *Pipeline {
	if classify == nil {
		classify = func(string) Mount { return MountLocal }
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Pipeline{
		cacheDir:    cacheDir,
		maxBytes:    ClampMaxBytes(maxBytes),
		maxFiles:    maxFiles,
		admission:   NewAdmission(AdmissionCapacity(poolThreads)),
		inflight:    newInflight(),
		classifyDir: classify,
		log:         log,
	}
}

// Generate produces (or returns the cached) thumbnail for req.
func (p *Pipeline) Generate(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	info, err := os.Lstat(req.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Response{}, browseyerr.Wrap(browseyerr.NotFound, err, "no such file "+req.Path)
		}
		return Response{}, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+req.Path)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Response{}, browseyerr.New(browseyerr.SymlinkUnsupported, "thumbnails are not generated for symlinks")
	}

	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		return Response{}, browseyerr.Wrap(browseyerr.InvalidPath, err, "unable to resolve "+req.Path)
	}

	key := CacheKey(absPath, info.ModTime().UnixNano(), req.MaxDim)
	destPath := CachePath(p.cacheDir, key)

	if width, height, err := ReadPNGDimensions(destPath); err == nil {
		return Response{CachedPath: destPath, Width: width, Height: height, Cached: true}, nil
	}

	resp, _, err := p.inflight.do(key, func() (Response, error) {
		return p.generate(ctx, absPath, req.MaxDim, destPath)
	})
	return resp, err
}

// ClearCache discards every cached thumbnail, per spec section 6's
// `clear_thumbnail_cache()`. The directory is recreated empty so
// subsequent Generate calls don't need to special-case a missing
// cacheDir.
func (p *Pipeline) ClearCache() error {
	if err := os.RemoveAll(p.cacheDir); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "failed to clear thumbnail cache")
	}
	if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
		return browseyerr.Wrap(browseyerr.IOError, err, "failed to recreate thumbnail cache directory")
	}
	return nil
}

func (p *Pipeline) generate(ctx context.Context, absPath string, maxDim int, destPath string) (Response, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Response{}, browseyerr.Wrap(browseyerr.IOError, err, "unable to create thumbnail cache directory")
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	format := ClassifyFormat(ext)
	mount := p.classifyDir(absPath)
	timeout := TimeoutFor(mount, IsHDR(ext))

	guard, err := p.admission.Acquire(ctx, PermitsFor(format))
	if err != nil {
		return Response{}, err
	}
	defer guard.Release()

	decodeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	width, height, err := decoderFor(format)(decodeCtx, absPath, maxDim, destPath)
	if err != nil {
		_ = os.Remove(destPath)
		return Response{}, err
	}

	if atomic.AddUint64(&p.generated, 1)%TrimEvery == 0 {
		if trimErr := trimCache(p.cacheDir, p.maxBytes, p.maxFiles, p.log); trimErr != nil {
			p.log.Warnf("thumbnail cache trim failed: %v", trimErr)
		}
	}

	return Response{CachedPath: destPath, Width: width, Height: height, Cached: false}, nil
}
