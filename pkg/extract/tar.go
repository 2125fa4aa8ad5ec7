package extract

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
	"github.com/browsey/browsey-core/pkg/fsprimitives"
	"github.com/klauspost/compress/zstd"
)

// openTarStream opens path and wraps it in the decompressor appropriate to
// format, returning a stream of tar headers/content. Callers must Close
// the returned reader.
func openTarStream(path string, format Format) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, browseyerr.Wrap(browseyerr.OpenFailed, err, "unable to open archive "+path)
	}

	switch format {
	case FormatTarPlain:
		return f, nil
	case FormatTarGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to open gzip stream in "+path)
		}
		return &joinedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case FormatTarBzip2:
		return &joinedCloser{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	case FormatTarZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to open zstd stream in "+path)
		}
		return &joinedCloser{Reader: dec.IOReadCloser(), closers: []io.Closer{f}}, nil
	default:
		f.Close()
		return nil, browseyerr.New(browseyerr.Unsupported, "unsupported tar variant")
	}
}

// joinedCloser closes every closer in order when Close is called, letting
// a layered decompressor (zstd/gzip wrapping a file handle) present a
// single io.ReadCloser to callers.
type joinedCloser struct {
	io.Reader
	closers []io.Closer
}

func (j *joinedCloser) Close() error {
	var first error
	for _, c := range j.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// tarTopLevelNames returns the set of top-level path components (the first
// '/'-separated segment of every entry) found in the archive, used to
// decide the single-top-level-directory destination rule.
func tarTopLevelNames(path string, format Format) (map[string]bool, error) {
	stream, err := openTarStream(path, format)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	names := map[string]bool{}
	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to read tar headers in "+path)
		}
		top := strings.SplitN(normalizeEntryName(hdr.Name), "/", 2)[0]
		if top != "" && top != "." {
			names[top] = true
		}
	}
	return names, nil
}

type extractOutcome struct {
	skippedSymlinks int
	skippedEntries  int
}

// extractTar streams archivePath's tar entries into destRoot, enforcing
// the traversal/symlink/parent-is-file policy, registering every created
// path in arena, and reserving against budget as it writes. topLevel, if
// non-empty, names the single wrapper directory shared by every entry and
// is stripped from each entry's path, mirroring extractZip.
func extractTar(archivePath string, format Format, destRoot string, topLevel string, filter EntryFilter, budget *Budget, arena *createdPaths, progress func(int64), cancelled fsprimitives.Cancelled) (extractOutcome, error) {
	var outcome extractOutcome

	stream, err := openTarStream(archivePath, format)
	if err != nil {
		return outcome, err
	}
	defer stream.Close()

	tr := tar.NewReader(stream)
	for {
		if cancelled != nil && cancelled() {
			return outcome, browseyerr.New(browseyerr.Cancelled, "extraction cancelled")
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return outcome, browseyerr.Wrap(browseyerr.ParseFailed, err, "unable to read tar entry in "+archivePath)
		}

		cleaned := normalizeEntryName(hdr.Name)
		if isTraversalOrAbsolute(cleaned) {
			outcome.skippedEntries++
			continue
		}
		cleaned, ok := stripTopLevel(cleaned, topLevel)
		if !ok {
			continue
		}
		if filter != nil && filter(cleaned) {
			outcome.skippedEntries++
			continue
		}
		if hdr.Typeflag == tar.TypeSymlink || hdr.Typeflag == tar.TypeLink {
			outcome.skippedSymlinks++
			continue
		}

		target := destinationPath(destRoot, cleaned)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := budget.ReserveEntry(); err != nil {
				return outcome, err
			}
			if err := mkdirAllTracked(arena, target, 0755); err != nil {
				return outcome, browseyerr.Wrap(browseyerr.IOError, err, "unable to create directory "+target)
			}
		case tar.TypeReg:
			parentInfo, statErr := os.Lstat(destinationPath(destRoot, parentOf(cleaned)))
			if statErr == nil && !parentInfo.IsDir() {
				outcome.skippedEntries++
				continue
			}
			if err := budget.ReserveEntry(); err != nil {
				return outcome, err
			}
			target, err = avoidOverwrite(target)
			if err != nil {
				return outcome, err
			}
			if err := mkdirAllTracked(arena, parentDir(target), 0755); err != nil {
				return outcome, browseyerr.Wrap(browseyerr.IOError, err, "unable to create parent directory for "+target)
			}
			if err := writeEntryFile(arena, target, tr, budget, progress, cancelled); err != nil {
				return outcome, err
			}
		default:
			outcome.skippedEntries++
		}
	}
	return outcome, nil
}
