package trash

import (
	"fmt"
	"strings"
)

// isPassthroughByte reports whether b may appear literally in an encoded
// journal field: ALPHA / DIGIT / - / _ / . / ~ and the path separator '/',
// per spec section 4.4.
func isPassthroughByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-', b == '_', b == '.', b == '~', b == '/':
		return true
	default:
		return false
	}
}

// percentEncode renders raw path bytes as a journal-safe field: passthrough
// bytes are copied literally, everything else (including bytes that would
// collide with the journal's own field/line delimiters) becomes %HH.
func percentEncode(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if isPassthroughByte(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// percentDecode is the inverse of percentEncode. A malformed escape (a '%'
// not followed by two valid hex digits) is reported as an error so the
// caller can log and skip the line, per spec section 4.4.
func percentDecode(encoded string) ([]byte, error) {
	out := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '%' {
			out = append(out, c)
			continue
		}
		if i+2 >= len(encoded) {
			return nil, fmt.Errorf("truncated percent-escape at offset %d", i)
		}
		var hi, lo byte
		var err error
		if hi, err = hexNibble(encoded[i+1]); err != nil {
			return nil, err
		}
		if lo, err = hexNibble(encoded[i+2]); err != nil {
			return nil, err
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q in percent-escape", c)
	}
}
