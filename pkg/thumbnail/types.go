// Package thumbnail implements C14: ThumbnailPipeline, the
// content-addressed thumbnail cache and decode pipeline. Grounded on the
// teacher's worker-pool + singleflight-style combination used throughout
// pkg/synchronization/core (bounded concurrency admission plus dedup of
// concurrent identical requests), generalized here from sync-session
// staging work to image/SVG/PDF/video thumbnail decoding.
package thumbnail

import (
	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// MinDim and MaxDim bound the requested thumbnail's largest dimension,
// per spec section 4.14's `max_dim ∈ [32,512]`.
const (
	MinDim = 32
	MaxDim = 512
)

// Request is a single thumbnail request.
type Request struct {
	Path          string
	MaxDim        int
	GenerationTag string
}

// Validate checks MaxDim is within the allowed range.
func (r Request) Validate() error {
	if r.MaxDim < MinDim || r.MaxDim > MaxDim {
		return browseyerr.New(browseyerr.InvalidInput, "max_dim must be between 32 and 512")
	}
	return nil
}

// Response is the thumbnail pipeline's result for a request.
type Response struct {
	CachedPath string
	Width      int
	Height     int
	Cached     bool
}

// Mount classifies the source's storage medium, since it changes which
// cancellation timeout class applies (spec section 4.14).
type Mount int

const (
	MountLocal Mount = iota
	MountVirtual
)

// Format classifies the decode route a path takes.
type Format int

const (
	FormatJPEG Format = iota
	FormatOtherImage
	FormatSVG
	FormatPDF
	FormatVideo
)

// ClassifyFormat maps a file extension to a Format. Unknown extensions
// fall back to FormatOtherImage, the guarded generic image decode path.
func ClassifyFormat(ext string) Format {
	switch ext {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".svg":
		return FormatSVG
	case ".pdf":
		return FormatPDF
	case ".mp4", ".mov", ".mkv", ".webm", ".avi":
		return FormatVideo
	default:
		return FormatOtherImage
	}
}

// IsHDR reports whether ext names a format that needs the HDR/EXR
// timeout class, per spec section 4.14.
func IsHDR(ext string) bool {
	switch ext {
	case ".exr", ".hdr":
		return true
	default:
		return false
	}
}
