// Package cloudpath implements C8: the structured remote:path value type
// cloud operations address entries by, distinct from the local filesystem
// paths pkg/pathguard validates. Grounded on the teacher's pkg/url, which
// plays the analogous role of a small, strongly-typed addressable-location
// value with its own parse/format pair — generalized here from
// local/SSH/Docker endpoint addressing to a single remote-plus-segments
// shape matching an rclone remote.
package cloudpath

import (
	"strings"

	"github.com/browsey/browsey-core/pkg/browseyerr"
)

// scheme is the serialized form's prefix, per spec section 4.8:
// "rclone://<remote>/<seg>/<seg>".
const scheme = "rclone://"

// Path is an opaque remote identifier (as registered in the external CLI's
// configuration) paired with an ordered sequence of non-empty path
// segments. The zero value is not a valid Path; construct one with Parse
// or New.
type Path struct {
	remote   string
	segments []string
}

// New builds a Path directly from a remote name and segment slice,
// validating the same invariants Parse enforces. segments is copied so the
// caller's backing array can be reused.
func New(remote string, segments []string) (Path, error) {
	if remote == "" {
		return Path{}, browseyerr.New(browseyerr.InvalidPath, "cloud path remote must not be empty")
	}
	copied := make([]string, len(segments))
	copy(copied, segments)
	if err := validateSegments(copied); err != nil {
		return Path{}, err
	}
	return Path{remote: remote, segments: copied}, nil
}

// Parse parses raw, which must be in the serialized form
// "rclone://<remote>/<seg>/<seg>", into a Path. An empty segment list
// (bare "rclone://<remote>" or "rclone://<remote>/") is valid and denotes
// the remote's root.
func Parse(raw string) (Path, error) {
	if !strings.HasPrefix(raw, scheme) {
		return Path{}, browseyerr.New(browseyerr.InvalidPath, "cloud path must begin with "+scheme+": "+raw)
	}
	rest := raw[len(scheme):]

	remote, tail, _ := strings.Cut(rest, "/")
	if remote == "" {
		return Path{}, browseyerr.New(browseyerr.InvalidPath, "cloud path remote must not be empty: "+raw)
	}

	var segments []string
	if tail != "" {
		segments = strings.Split(tail, "/")
	}
	if err := validateSegments(segments); err != nil {
		return Path{}, err
	}
	return Path{remote: remote, segments: segments}, nil
}

func validateSegments(segments []string) error {
	for _, s := range segments {
		if s == "" {
			return browseyerr.New(browseyerr.InvalidPath, "cloud path must not contain empty segments")
		}
		if s == "." || s == ".." {
			return browseyerr.New(browseyerr.InvalidPath, "cloud path must not contain . or .. segments")
		}
	}
	return nil
}

// Remote returns the opaque remote identifier.
func (p Path) Remote() string {
	return p.remote
}

// Segments returns the path's segments. The returned slice is a copy;
// mutating it does not affect p.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// IsRoot reports whether p addresses its remote's root (no segments).
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Join appends segment to p, returning the extended Path. segment must be
// non-empty and must not be "." or "..".
func (p Path) Join(segment string) (Path, error) {
	if err := validateSegments([]string{segment}); err != nil {
		return Path{}, err
	}
	joined := make([]string, len(p.segments)+1)
	copy(joined, p.segments)
	joined[len(p.segments)] = segment
	return Path{remote: p.remote, segments: joined}, nil
}

// Parent returns p with its final segment removed, and true. If p is
// already the remote's root, it returns the zero Path and false.
func (p Path) Parent() (Path, bool) {
	if len(p.segments) == 0 {
		return Path{}, false
	}
	parentSegments := make([]string, len(p.segments)-1)
	copy(parentSegments, p.segments[:len(p.segments)-1])
	return Path{remote: p.remote, segments: parentSegments}, true
}

// Leaf returns p's final segment. It fails with InvalidPath if p addresses
// the remote's root, since the root has no leaf name.
func (p Path) Leaf() (string, error) {
	if len(p.segments) == 0 {
		return "", browseyerr.New(browseyerr.InvalidPath, "cloud path root has no leaf segment")
	}
	return p.segments[len(p.segments)-1], nil
}

// String returns p in its serialized "rclone://<remote>/<seg>/<seg>" form,
// matching what Parse accepts.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return scheme + p.remote
	}
	return scheme + p.remote + "/" + strings.Join(p.segments, "/")
}

// ToRcloneSpec formats p the way the external rclone-compatible CLI/daemon
// expects on its command line or RPC body: "<remote>:<joined/segments>".
func (p Path) ToRcloneSpec() string {
	return p.remote + ":" + strings.Join(p.segments, "/")
}

// Equal reports whether p and other address the same location. Comparison
// is case-sensitive unless caseInsensitive is true, per spec section 4.8's
// "case-preserving everywhere; case-sensitive comparison unless the
// backend is marked otherwise in CloudCaps" rule — callers pass the
// per-remote CloudCaps case-sensitivity flag through as caseInsensitive.
func (p Path) Equal(other Path, caseInsensitive bool) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	if !segmentEqual(p.remote, other.remote, caseInsensitive) {
		return false
	}
	for i := range p.segments {
		if !segmentEqual(p.segments[i], other.segments[i], caseInsensitive) {
			return false
		}
	}
	return true
}

func segmentEqual(a, b string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// HasPrefix reports whether p is other or a descendant of other on the
// same remote, used by CloudCache's subtree-invalidation sweep (spec
// section 4.10: "all keys whose string has P + '/' as prefix").
func (p Path) HasPrefix(other Path, caseInsensitive bool) bool {
	if !segmentEqual(p.remote, other.remote, caseInsensitive) {
		return false
	}
	if len(other.segments) > len(p.segments) {
		return false
	}
	for i := range other.segments {
		if !segmentEqual(p.segments[i], other.segments[i], caseInsensitive) {
			return false
		}
	}
	return true
}
