package extract

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/klauspost/compress/zstd"
)

// extractSingleStream decompresses a bare (non-tar) gz/bz2/zst stream into
// a single destination file, since these formats carry no directory
// structure of their own.
func extractSingleStream(archivePath string, format Format, budget *Budget, arena *createdPaths, progress func(int64), cancelled fsprimitives.Cancelled) (string, error) {
	parent := filepath.Dir(archivePath)
	stem := StripArchiveSuffix(filepath.Base(archivePath))
	dest, err := avoidOverwrite(filepath.Join(parent, stem))
	if err != nil {
		return "", err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return "", browseyerr.Wrap(browseyerr.OpenFailed, err, "unable to open "+archivePath)
	}
	defer f.Close()

	var reader io.Reader
	switch format {
	case FormatGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return "", browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to open gzip stream in "+archivePath)
		}
		defer gz.Close()
		reader = gz
	case FormatBzip2:
		reader = bzip2.NewReader(f)
	case FormatZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return "", browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to open zstd stream in "+archivePath)
		}
		defer dec.Close()
		reader = dec
	default:
		return "", browseyerr.New(browseyerr.Unsupported, "unsupported single-stream format")
	}

	if err := budget.ReserveEntry(); err != nil {
		return "", err
	}
	if err := writeEntryFile(arena, dest, reader, budget, progress, cancelled); err != nil {
		return "", err
	}
	return dest, nil
}
