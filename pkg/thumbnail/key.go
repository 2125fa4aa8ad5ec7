package thumbnail

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/browsey/browsey-core/pkg/base62"
	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// CacheKey computes the content-addressed hash over
// (absolute_path, mtime, max_dim) named in spec section 4.14, rendered as
// a filesystem-safe base62 string.
func CacheKey(absolutePath string, mtimeUnixNano int64, maxDim int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d", absolutePath, mtimeUnixNano, maxDim)
	return base62.Encode(h.Sum(nil))
}

// CachePath returns the on-disk path for a given cache key under cacheDir.
func CachePath(cacheDir, key string) string {
	return filepath.Join(cacheDir, key+".png")
}

// pngSignature is the fixed 8-byte magic every PNG file starts with.
var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ReadPNGDimensions reads width/height directly from a PNG file's IHDR
// chunk without decoding the whole image, per spec section 4.14's "on
// hit, dimensions are read from the cached PNG header."
func ReadPNGDimensions(path string) (width, height int, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.OpenFailed, openErr, "unable to open cached thumbnail "+path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var header [24]byte
	if _, readErr := readFull(r, header[:]); readErr != nil {
		return 0, 0, browseyerr.Wrap(browseyerr.ParseFailed, readErr, "unable to read PNG header from "+path)
	}

	for i := range pngSignature {
		if header[i] != pngSignature[i] {
			return 0, 0, browseyerr.New(browseyerr.ParseFailed, "not a PNG file: "+path)
		}
	}
	// Bytes 8-11: IHDR chunk length (ignored here); 12-15: "IHDR"; 16-19:
	// width; 20-23: height. All integers are big-endian per the PNG spec.
	if string(header[12:16]) != "IHDR" {
		return 0, 0, browseyerr.New(browseyerr.ParseFailed, "PNG missing IHDR chunk: "+path)
	}
	width = int(binary.BigEndian.Uint32(header[16:20]))
	height = int(binary.BigEndian.Uint32(header[20:24]))
	return width, height, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
