package rename

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// SequenceMode selects how a batch rename's numeric sequence token is
// rendered, per spec section 4.16.
type SequenceMode int

const (
	SequenceNone SequenceMode = iota
	SequenceNumeric
	SequenceAlpha
)

// Placement selects where the sequence token is injected when the
// processed stem has no literal "$n" token to substitute.
type Placement int

const (
	PlacementStart Placement = iota
	PlacementEnd
)

// PreviewOptions configures the batch rename preview engine, per spec
// section 4.16.
type PreviewOptions struct {
	Regex         string
	Replacement   string
	Prefix        string
	Suffix        string
	CaseSensitive bool
	SequenceMode  SequenceMode
	Placement     Placement
	Start         int32
	Step          int32
	Pad           int
}

// PreviewRow is one entry's computed new name, or the error that
// prevented computing it.
type PreviewRow struct {
	OriginalPath string
	NewName      string
	Err          error
}

// sequenceToken is the literal substring the regex/prefix/suffix stage
// may leave behind for the sequence stage to substitute in place,
// instead of appending/prepending it.
const sequenceToken = "$n"

// Preview is the pure batch-rename preview function named in spec
// section 4.16: it never touches the filesystem. Invalid regex is
// reported once (attached to every row needing it) while rows are still
// computed using the un-substituted name, per "invalid regex is
// reported but rows still computed."
func Preview(paths []string, opts PreviewOptions) []PreviewRow {
	var re *regexp.Regexp
	var regexErr error
	if opts.Regex != "" {
		pattern := opts.Regex
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, regexErr = regexp.Compile(pattern)
	}

	rows := make([]PreviewRow, len(paths))
	for i, path := range paths {
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(filepath.Base(path), ext)

		if re != nil {
			stem = re.ReplaceAllString(stem, opts.Replacement)
		}

		stem = opts.Prefix + stem + opts.Suffix

		token := sequenceString(opts, i)
		if token != "" {
			if strings.Contains(stem, sequenceToken) {
				stem = strings.ReplaceAll(stem, sequenceToken, token)
			} else if opts.Placement == PlacementStart {
				stem = token + stem
			} else {
				stem = stem + token
			}
		}

		rows[i] = PreviewRow{
			OriginalPath: path,
			NewName:      stem + ext,
			Err:          regexErr,
		}
	}
	return rows
}

// sequenceString renders the sequence token for row index idx, or "" if
// no sequence was requested.
func sequenceString(opts PreviewOptions, idx int) string {
	switch opts.SequenceMode {
	case SequenceNumeric:
		value := opts.Start + opts.Step*int32(idx)
		return fmt.Sprintf("%0*d", opts.Pad, value)
	case SequenceAlpha:
		value := opts.Start + opts.Step*int32(idx)
		return alphaSequence(value)
	default:
		return ""
	}
}

// alphaSequence maps a 1-based value to the A, B, ..., Z, AA, AB, ...
// spreadsheet-column-style sequence named in spec section 4.16. Values
// less than 1 render as an empty string.
func alphaSequence(value int32) string {
	if value < 1 {
		return ""
	}
	var letters []byte
	n := value
	for n > 0 {
		n--
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}
