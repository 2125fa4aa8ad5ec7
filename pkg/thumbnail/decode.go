package thumbnail

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// maxDecodedDimension and maxDecodedBytes are the guarded generic decode
// path's codec limits, protecting against maliciously or accidentally
// huge images consuming unbounded memory, per spec section 4.14.
const (
	maxDecodedDimension = 20000
	maxDecodedBytes     = 4 * maxDecodedDimension * maxDecodedDimension
)

// decodeFunc renders path (already known to exist) into a maxDim-bounded
// PNG at destPath, cooperatively honoring ctx for cancellation.
type decodeFunc func(ctx context.Context, path string, maxDim int, destPath string) (width, height int, err error)

// decodeOtherImage is the guarded generic image decode path: it enforces
// maxDecodedDimension/maxDecodedBytes before attempting a full decode, so
// a pathological image cannot exhaust memory.
func decodeOtherImage(ctx context.Context, path string, maxDim int, destPath string) (int, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.MetadataReadFailed, err, "unable to stat "+path)
	}
	if info.Size() > maxDecodedBytes {
		return 0, 0, browseyerr.New(browseyerr.Unsupported, fmt.Sprintf("%s exceeds the decode size guard", path))
	}
	return decodeViaImaging(ctx, path, maxDim, destPath)
}

func decodeViaImaging(ctx context.Context, path string, maxDim int, destPath string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.OpenFailed, err, "unable to open "+path)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err == nil && (cfg.Width > maxDecodedDimension || cfg.Height > maxDecodedDimension) {
		return 0, 0, browseyerr.New(browseyerr.Unsupported, fmt.Sprintf("%s exceeds the decode dimension guard", path))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.IOError, err, "unable to rewind "+path)
	}

	reader := newCancellableReader(ctx, f)

	src, _, decodeErr := image.Decode(reader)
	if decodeErr != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.ParseFailed, decodeErr, "unable to decode "+path)
	}

	thumb := imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	if err := imaging.Save(thumb, destPath); err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.IOError, err, "unable to write thumbnail "+destPath)
	}
	bounds := thumb.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// decodeJPEGStrict re-encodes through the standard library's jpeg package
// directly rather than imaging's wrapper, used when the source is
// confirmed to already be JPEG so decode errors map to a more specific
// ParseFailed rather than the generic image.Decode registry failure.
func decodeJPEGStrict(ctx context.Context, path string, maxDim int, destPath string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.OpenFailed, err, "unable to open "+path)
	}
	defer f.Close()

	reader := newCancellableReader(ctx, f)

	src, decodeErr := jpeg.Decode(reader)
	if decodeErr != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.ParseFailed, decodeErr, "unable to decode JPEG "+path)
	}

	thumb := imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	if err := imaging.Save(thumb, destPath); err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.IOError, err, "unable to write thumbnail "+destPath)
	}
	bounds := thumb.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// externalRenderer shells out to an external converter binary to produce
// a PNG at destPath, following the same os/exec idiom the cloud provider
// uses to drive the external sync binary (pkg/cloud's CLI transport):
// build an argv, run under ctx so a timeout kills the child process, and
// map a non-zero exit or missing binary to a browseyerr.Code.
type externalRenderer struct {
	binary string
	argsFn func(src, dest string, maxDim int) []string
}

func (r externalRenderer) decode(ctx context.Context, path string, maxDim int, destPath string) (int, int, error) {
	if _, err := exec.LookPath(r.binary); err != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.BinaryMissing, err, r.binary+" not found on PATH")
	}

	args := r.argsFn(path, destPath, maxDim)
	cmd := exec.CommandContext(ctx, r.binary, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, 0, browseyerr.Wrap(browseyerr.Cancelled, ctx.Err(), "thumbnail decode read interrupted")
		}
		return 0, 0, browseyerr.Wrap(browseyerr.TaskFailed, err, "Decode worker crashed")
	}
	return ReadPNGDimensions(destPath)
}

// svgRenderer rasterizes an SVG via rsvg-convert, widely available and
// already the external-binary idiom this module uses elsewhere for
// functionality outside the standard library's reach.
var svgRenderer = externalRenderer{
	binary: "rsvg-convert",
	argsFn: func(src, dest string, maxDim int) []string {
		return []string{"-w", itoa(maxDim), "-h", itoa(maxDim), "-a", "-o", dest, src}
	},
}

// pdfRenderer rasterizes a PDF's first page via pdftoppm (poppler-utils).
var pdfRenderer = externalRenderer{
	binary: "pdftoppm",
	argsFn: func(src, dest string, maxDim int) []string {
		base := dest
		if ext := filepath.Ext(dest); ext != "" {
			base = dest[:len(dest)-len(ext)]
		}
		return []string{"-png", "-singlefile", "-scale-to", itoa(maxDim), src, base}
	},
}

// videoRenderer grabs a single representative frame via ffmpeg.
var videoRenderer = externalRenderer{
	binary: "ffmpeg",
	argsFn: func(src, dest string, maxDim int) []string {
		scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", maxDim, maxDim)
		return []string{"-y", "-i", src, "-vframes", "1", "-vf", scale, dest}
	},
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

// decoderFor selects the decodeFunc for a Format.
func decoderFor(f Format) decodeFunc {
	switch f {
	case FormatJPEG:
		return decodeJPEGStrict
	case FormatSVG:
		return svgRenderer.decode
	case FormatPDF:
		return pdfRenderer.decode
	case FormatVideo:
		return videoRenderer.decode
	default:
		return decodeOtherImage
	}
}
